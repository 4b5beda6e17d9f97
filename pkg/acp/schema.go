package acp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Typed payloads for every method in the agent and client tables. Field
// names follow the ACP wire schema (camelCase). Union types carry a
// discriminator field on the wire and are modeled as one-of structs with
// custom JSON codecs, so an empty or double-filled union is a marshal error
// rather than a silent misencoding.

// --- initialize -----------------------------------------------------------

// InitializeRequest is the first request a client sends.
type InitializeRequest struct {
	ProtocolVersion    int                `json:"protocolVersion"`
	ClientCapabilities ClientCapabilities `json:"clientCapabilities,omitempty"`
}

// InitializeResponse reports the agreed protocol version and what the agent
// can do.
type InitializeResponse struct {
	ProtocolVersion   int               `json:"protocolVersion"`
	AgentCapabilities AgentCapabilities `json:"agentCapabilities,omitempty"`
	AuthMethods       []AuthMethod      `json:"authMethods,omitempty"`
}

// ClientCapabilities advertises the optional client-side surfaces.
type ClientCapabilities struct {
	Fs       FileSystemCapability `json:"fs,omitempty"`
	Terminal bool                 `json:"terminal,omitempty"`
}

// FileSystemCapability advertises which fs/* methods the client serves.
type FileSystemCapability struct {
	ReadTextFile  bool `json:"readTextFile,omitempty"`
	WriteTextFile bool `json:"writeTextFile,omitempty"`
}

// AgentCapabilities advertises the optional agent-side surfaces.
type AgentCapabilities struct {
	LoadSession        bool               `json:"loadSession,omitempty"`
	PromptCapabilities PromptCapabilities `json:"promptCapabilities,omitempty"`
}

// PromptCapabilities advertises which content block kinds the agent accepts
// in session/prompt.
type PromptCapabilities struct {
	Image           bool `json:"image,omitempty"`
	Audio           bool `json:"audio,omitempty"`
	EmbeddedContext bool `json:"embeddedContext,omitempty"`
}

// AuthMethod describes one way to authenticate with the agent.
type AuthMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AuthenticateRequest selects one of the advertised auth methods.
type AuthenticateRequest struct {
	MethodID string `json:"methodId"`
}

// --- sessions -------------------------------------------------------------

// NewSessionRequest creates a fresh session rooted at Cwd.
type NewSessionRequest struct {
	Cwd        string            `json:"cwd"`
	McpServers []McpServerConfig `json:"mcpServers,omitempty"`
}

// NewSessionResponse carries the id used by all subsequent session calls.
type NewSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// LoadSessionRequest resumes an existing session. Serving it is optional;
// agents that do not support it answer with MethodNotFound.
type LoadSessionRequest struct {
	SessionID  string            `json:"sessionId"`
	Cwd        string            `json:"cwd"`
	McpServers []McpServerConfig `json:"mcpServers,omitempty"`
}

// McpServerConfig tells the agent how to reach one MCP server for the
// session.
type McpServerConfig struct {
	Name    string        `json:"name"`
	Command string        `json:"command"`
	Args    []string      `json:"args,omitempty"`
	Env     []EnvVariable `json:"env,omitempty"`
}

// EnvVariable is a single environment entry for a spawned MCP server.
type EnvVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PromptRequest submits a user turn to the agent.
type PromptRequest struct {
	SessionID string         `json:"sessionId"`
	Prompt    []ContentBlock `json:"prompt"`
}

// PromptResponse ends a turn and says why it stopped.
type PromptResponse struct {
	StopReason StopReason `json:"stopReason"`
}

// StopReason says why a prompt turn ended.
type StopReason string

const (
	StopReasonEndTurn         StopReason = "end_turn"
	StopReasonMaxTokens       StopReason = "max_tokens"
	StopReasonMaxTurnRequests StopReason = "max_turn_requests"
	StopReasonRefusal         StopReason = "refusal"
	StopReasonCancelled       StopReason = "cancelled"
)

// CancelNotification asks the agent to stop the session's current turn.
type CancelNotification struct {
	SessionID string `json:"sessionId"`
}

// SessionNotification streams one update for a session from agent to client.
type SessionNotification struct {
	SessionID string        `json:"sessionId"`
	Update    SessionUpdate `json:"update"`
}

// --- content blocks -------------------------------------------------------

// ContentBlock is a one-of over the content kinds that appear in prompts and
// session updates. Exactly one variant must be set.
type ContentBlock struct {
	Text         *TextContent
	Image        *ImageContent
	Audio        *AudioContent
	ResourceLink *ResourceLinkContent
	Resource     *EmbeddedResource
}

// TextContent is plain text.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ImageContent is inline base64-encoded image data.
type ImageContent struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// AudioContent is inline base64-encoded audio data.
type AudioContent struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// ResourceLinkContent references a resource by URI without embedding it.
type ResourceLinkContent struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Title    string `json:"title,omitempty"`
}

// EmbeddedResource carries resource contents inline.
type EmbeddedResource struct {
	Type     string                   `json:"type"`
	Resource EmbeddedResourceContents `json:"resource"`
}

// EmbeddedResourceContents is the inner payload of an embedded resource.
type EmbeddedResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch {
	case b.Text != nil:
		v := *b.Text
		v.Type = "text"

		return json.Marshal(v)
	case b.Image != nil:
		v := *b.Image
		v.Type = "image"

		return json.Marshal(v)
	case b.Audio != nil:
		v := *b.Audio
		v.Type = "audio"

		return json.Marshal(v)
	case b.ResourceLink != nil:
		v := *b.ResourceLink
		v.Type = "resource_link"

		return json.Marshal(v)
	case b.Resource != nil:
		v := *b.Resource
		v.Type = "resource"

		return json.Marshal(v)
	default:
		return nil, errors.New("acp: content block has no variant set")
	}
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	*b = ContentBlock{}
	switch tag.Type {
	case "text":
		b.Text = &TextContent{}

		return json.Unmarshal(data, b.Text)
	case "image":
		b.Image = &ImageContent{}

		return json.Unmarshal(data, b.Image)
	case "audio":
		b.Audio = &AudioContent{}

		return json.Unmarshal(data, b.Audio)
	case "resource_link":
		b.ResourceLink = &ResourceLinkContent{}

		return json.Unmarshal(data, b.ResourceLink)
	case "resource":
		b.Resource = &EmbeddedResource{}

		return json.Unmarshal(data, b.Resource)
	default:
		return fmt.Errorf("acp: unknown content block type %q", tag.Type)
	}
}

// --- session updates ------------------------------------------------------

// SessionUpdate is a one-of over the update kinds carried by
// session/update. Exactly one variant must be set.
type SessionUpdate struct {
	UserMessageChunk  *ContentChunk
	AgentMessageChunk *ContentChunk
	AgentThoughtChunk *ContentChunk
	ToolCall          *ToolCallStart
	ToolCallUpdate    *ToolCallUpdate
	Plan              *Plan
}

// ContentChunk is a streamed piece of a message.
type ContentChunk struct {
	Content ContentBlock `json:"content"`
}

// ToolCallStart reports a new tool invocation.
type ToolCallStart struct {
	ToolCallID string             `json:"toolCallId"`
	Title      string             `json:"title"`
	Kind       ToolKind           `json:"kind,omitempty"`
	Status     ToolCallStatus     `json:"status,omitempty"`
	Content    []ToolCallContent  `json:"content,omitempty"`
	Locations  []ToolCallLocation `json:"locations,omitempty"`
	RawInput   any                `json:"rawInput,omitempty"`
	RawOutput  any                `json:"rawOutput,omitempty"`
}

// ToolCallUpdate revises fields of a previously reported tool call. Pointer
// fields distinguish "unchanged" from an explicit new value.
type ToolCallUpdate struct {
	ToolCallID string             `json:"toolCallId"`
	Title      *string            `json:"title,omitempty"`
	Kind       *ToolKind          `json:"kind,omitempty"`
	Status     *ToolCallStatus    `json:"status,omitempty"`
	Content    []ToolCallContent  `json:"content,omitempty"`
	Locations  []ToolCallLocation `json:"locations,omitempty"`
	RawInput   any                `json:"rawInput,omitempty"`
	RawOutput  any                `json:"rawOutput,omitempty"`
}

// ToolKind is a coarse classification used for display.
type ToolKind string

const (
	ToolKindRead    ToolKind = "read"
	ToolKindEdit    ToolKind = "edit"
	ToolKindDelete  ToolKind = "delete"
	ToolKindMove    ToolKind = "move"
	ToolKindSearch  ToolKind = "search"
	ToolKindExecute ToolKind = "execute"
	ToolKindThink   ToolKind = "think"
	ToolKindFetch   ToolKind = "fetch"
	ToolKindOther   ToolKind = "other"
)

// ToolCallStatus is the lifecycle state of a tool call.
type ToolCallStatus string

const (
	ToolCallStatusPending    ToolCallStatus = "pending"
	ToolCallStatusInProgress ToolCallStatus = "in_progress"
	ToolCallStatusCompleted  ToolCallStatus = "completed"
	ToolCallStatusFailed     ToolCallStatus = "failed"
)

// ToolCallLocation points at a file a tool call touches.
type ToolCallLocation struct {
	Path string `json:"path"`
	Line *int   `json:"line,omitempty"`
}

// Plan reports the agent's current execution plan.
type Plan struct {
	Entries []PlanEntry `json:"entries"`
}

// PlanEntry is one step of a plan.
type PlanEntry struct {
	Content  string            `json:"content"`
	Priority PlanEntryPriority `json:"priority"`
	Status   PlanEntryStatus   `json:"status"`
}

// PlanEntryPriority orders plan entries by importance.
type PlanEntryPriority string

const (
	PlanEntryPriorityHigh   PlanEntryPriority = "high"
	PlanEntryPriorityMedium PlanEntryPriority = "medium"
	PlanEntryPriorityLow    PlanEntryPriority = "low"
)

// PlanEntryStatus is the lifecycle state of a plan entry.
type PlanEntryStatus string

const (
	PlanEntryStatusPending    PlanEntryStatus = "pending"
	PlanEntryStatusInProgress PlanEntryStatus = "in_progress"
	PlanEntryStatusCompleted  PlanEntryStatus = "completed"
)

// sessionUpdateTag discriminates SessionUpdate variants on the wire.
const (
	updateUserMessageChunk  = "user_message_chunk"
	updateAgentMessageChunk = "agent_message_chunk"
	updateAgentThoughtChunk = "agent_thought_chunk"
	updateToolCall          = "tool_call"
	updateToolCallUpdate    = "tool_call_update"
	updatePlan              = "plan"
)

func (u SessionUpdate) MarshalJSON() ([]byte, error) {
	tagged := func(tag string, v any) ([]byte, error) {
		inner, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(inner, &obj); err != nil {
			return nil, err
		}
		if obj == nil {
			obj = map[string]json.RawMessage{}
		}
		obj["sessionUpdate"] = json.RawMessage(fmt.Sprintf("%q", tag))

		return json.Marshal(obj)
	}

	switch {
	case u.UserMessageChunk != nil:
		return tagged(updateUserMessageChunk, u.UserMessageChunk)
	case u.AgentMessageChunk != nil:
		return tagged(updateAgentMessageChunk, u.AgentMessageChunk)
	case u.AgentThoughtChunk != nil:
		return tagged(updateAgentThoughtChunk, u.AgentThoughtChunk)
	case u.ToolCall != nil:
		return tagged(updateToolCall, u.ToolCall)
	case u.ToolCallUpdate != nil:
		return tagged(updateToolCallUpdate, u.ToolCallUpdate)
	case u.Plan != nil:
		return tagged(updatePlan, u.Plan)
	default:
		return nil, errors.New("acp: session update has no variant set")
	}
}

func (u *SessionUpdate) UnmarshalJSON(data []byte) error {
	var tag struct {
		SessionUpdate string `json:"sessionUpdate"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	*u = SessionUpdate{}
	switch tag.SessionUpdate {
	case updateUserMessageChunk:
		u.UserMessageChunk = &ContentChunk{}

		return json.Unmarshal(data, u.UserMessageChunk)
	case updateAgentMessageChunk:
		u.AgentMessageChunk = &ContentChunk{}

		return json.Unmarshal(data, u.AgentMessageChunk)
	case updateAgentThoughtChunk:
		u.AgentThoughtChunk = &ContentChunk{}

		return json.Unmarshal(data, u.AgentThoughtChunk)
	case updateToolCall:
		u.ToolCall = &ToolCallStart{}

		return json.Unmarshal(data, u.ToolCall)
	case updateToolCallUpdate:
		u.ToolCallUpdate = &ToolCallUpdate{}

		return json.Unmarshal(data, u.ToolCallUpdate)
	case updatePlan:
		u.Plan = &Plan{}

		return json.Unmarshal(data, u.Plan)
	default:
		return fmt.Errorf("acp: unknown session update %q", tag.SessionUpdate)
	}
}

// ToolCallContent is a one-of over the content kinds attachable to a tool
// call.
type ToolCallContent struct {
	Content  *ToolCallContentBlock
	Diff     *ToolCallDiff
	Terminal *ToolCallTerminal
}

// ToolCallContentBlock wraps an ordinary content block.
type ToolCallContentBlock struct {
	Type    string       `json:"type"`
	Content ContentBlock `json:"content"`
}

// ToolCallDiff is a proposed file modification.
type ToolCallDiff struct {
	Type    string  `json:"type"`
	Path    string  `json:"path"`
	OldText *string `json:"oldText,omitempty"`
	NewText string  `json:"newText"`
}

// ToolCallTerminal references a terminal created via terminal/create.
type ToolCallTerminal struct {
	Type       string `json:"type"`
	TerminalID string `json:"terminalId"`
}

func (c ToolCallContent) MarshalJSON() ([]byte, error) {
	switch {
	case c.Content != nil:
		v := *c.Content
		v.Type = "content"

		return json.Marshal(v)
	case c.Diff != nil:
		v := *c.Diff
		v.Type = "diff"

		return json.Marshal(v)
	case c.Terminal != nil:
		v := *c.Terminal
		v.Type = "terminal"

		return json.Marshal(v)
	default:
		return nil, errors.New("acp: tool call content has no variant set")
	}
}

func (c *ToolCallContent) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	*c = ToolCallContent{}
	switch tag.Type {
	case "content":
		c.Content = &ToolCallContentBlock{}

		return json.Unmarshal(data, c.Content)
	case "diff":
		c.Diff = &ToolCallDiff{}

		return json.Unmarshal(data, c.Diff)
	case "terminal":
		c.Terminal = &ToolCallTerminal{}

		return json.Unmarshal(data, c.Terminal)
	default:
		return fmt.Errorf("acp: unknown tool call content type %q", tag.Type)
	}
}

// --- file system ----------------------------------------------------------

// ReadTextFileRequest asks the client for file contents, optionally starting
// at a 1-based line with a line limit.
type ReadTextFileRequest struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Line      *int   `json:"line,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
}

// ReadTextFileResponse returns the requested contents.
type ReadTextFileResponse struct {
	Content string `json:"content"`
}

// WriteTextFileRequest asks the client to write a file, creating it if
// needed.
type WriteTextFileRequest struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

// WriteTextFileResponse is empty; the call succeeds or fails.
type WriteTextFileResponse struct{}

// --- permissions ----------------------------------------------------------

// RequestPermissionRequest asks the user to approve a tool call.
type RequestPermissionRequest struct {
	SessionID string             `json:"sessionId"`
	ToolCall  ToolCallUpdate     `json:"toolCall"`
	Options   []PermissionOption `json:"options"`
}

// PermissionOption is one choice offered to the user.
type PermissionOption struct {
	OptionID string               `json:"optionId"`
	Name     string               `json:"name"`
	Kind     PermissionOptionKind `json:"kind"`
}

// PermissionOptionKind hints how a permission option should be presented.
type PermissionOptionKind string

const (
	PermissionOptionKindAllowOnce    PermissionOptionKind = "allow_once"
	PermissionOptionKindAllowAlways  PermissionOptionKind = "allow_always"
	PermissionOptionKindRejectOnce   PermissionOptionKind = "reject_once"
	PermissionOptionKindRejectAlways PermissionOptionKind = "reject_always"
)

// RequestPermissionResponse carries the user's decision.
type RequestPermissionResponse struct {
	Outcome RequestPermissionOutcome `json:"outcome"`
}

// RequestPermissionOutcome is a one-of: the prompt turn was cancelled before
// the user decided, or the user selected an option.
type RequestPermissionOutcome struct {
	Cancelled *PermissionOutcomeCancelled
	Selected  *PermissionOutcomeSelected
}

// PermissionOutcomeCancelled reports the prompt turn ended first.
type PermissionOutcomeCancelled struct {
	Outcome string `json:"outcome"`
}

// PermissionOutcomeSelected reports the chosen option.
type PermissionOutcomeSelected struct {
	Outcome  string `json:"outcome"`
	OptionID string `json:"optionId"`
}

func (o RequestPermissionOutcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Cancelled != nil:
		v := *o.Cancelled
		v.Outcome = "cancelled"

		return json.Marshal(v)
	case o.Selected != nil:
		v := *o.Selected
		v.Outcome = "selected"

		return json.Marshal(v)
	default:
		return nil, errors.New("acp: permission outcome has no variant set")
	}
}

func (o *RequestPermissionOutcome) UnmarshalJSON(data []byte) error {
	var tag struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	*o = RequestPermissionOutcome{}
	switch tag.Outcome {
	case "cancelled":
		o.Cancelled = &PermissionOutcomeCancelled{}

		return json.Unmarshal(data, o.Cancelled)
	case "selected":
		o.Selected = &PermissionOutcomeSelected{}

		return json.Unmarshal(data, o.Selected)
	default:
		return fmt.Errorf("acp: unknown permission outcome %q", tag.Outcome)
	}
}

// --- terminals ------------------------------------------------------------

// CreateTerminalRequest asks the client to run a command in a new terminal.
type CreateTerminalRequest struct {
	SessionID       string        `json:"sessionId"`
	Command         string        `json:"command"`
	Args            []string      `json:"args,omitempty"`
	Env             []EnvVariable `json:"env,omitempty"`
	Cwd             *string       `json:"cwd,omitempty"`
	OutputByteLimit *int          `json:"outputByteLimit,omitempty"`
}

// CreateTerminalResponse identifies the created terminal.
type CreateTerminalResponse struct {
	TerminalID string `json:"terminalId"`
}

// TerminalOutputRequest fetches the current output of a terminal.
type TerminalOutputRequest struct {
	SessionID  string `json:"sessionId"`
	TerminalID string `json:"terminalId"`
}

// TerminalOutputResponse returns captured output and, once the command has
// finished, its exit status.
type TerminalOutputResponse struct {
	Output     string              `json:"output"`
	Truncated  bool                `json:"truncated"`
	ExitStatus *TerminalExitStatus `json:"exitStatus,omitempty"`
}

// TerminalExitStatus describes how a terminal command ended.
type TerminalExitStatus struct {
	ExitCode *int    `json:"exitCode,omitempty"`
	Signal   *string `json:"signal,omitempty"`
}

// ReleaseTerminalRequest frees a terminal and its retained output.
type ReleaseTerminalRequest struct {
	SessionID  string `json:"sessionId"`
	TerminalID string `json:"terminalId"`
}

// WaitForTerminalExitRequest blocks until the terminal's command ends.
type WaitForTerminalExitRequest struct {
	SessionID  string `json:"sessionId"`
	TerminalID string `json:"terminalId"`
}

// WaitForTerminalExitResponse reports the final exit status.
type WaitForTerminalExitResponse struct {
	ExitCode *int    `json:"exitCode,omitempty"`
	Signal   *string `json:"signal,omitempty"`
}

// KillTerminalRequest kills the terminal's command without releasing the
// terminal, so its output can still be read.
type KillTerminalRequest struct {
	SessionID  string `json:"sessionId"`
	TerminalID string `json:"terminalId"`
}
