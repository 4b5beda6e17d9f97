package acp

// Constructors for the union-typed payloads, so callers never assemble
// discriminated variants by hand.

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Text: &TextContent{Type: "text", Text: text}}
}

// ImageBlock builds an inline image block from base64-encoded data.
func ImageBlock(data, mimeType string) ContentBlock {
	return ContentBlock{Image: &ImageContent{Type: "image", Data: data, MimeType: mimeType}}
}

// AudioBlock builds an inline audio block from base64-encoded data.
func AudioBlock(data, mimeType string) ContentBlock {
	return ContentBlock{Audio: &AudioContent{Type: "audio", Data: data, MimeType: mimeType}}
}

// ResourceLinkBlock builds a resource_link block.
func ResourceLinkBlock(name, uri string) ContentBlock {
	return ContentBlock{ResourceLink: &ResourceLinkContent{Type: "resource_link", Name: name, URI: uri}}
}

// ResourceBlock embeds resource contents inline.
func ResourceBlock(contents EmbeddedResourceContents) ContentBlock {
	return ContentBlock{Resource: &EmbeddedResource{Type: "resource", Resource: contents}}
}

// UpdateUserMessage builds a user_message_chunk update.
func UpdateUserMessage(content ContentBlock) SessionUpdate {
	return SessionUpdate{UserMessageChunk: &ContentChunk{Content: content}}
}

// UpdateUserMessageText builds a user_message_chunk update from text.
func UpdateUserMessageText(text string) SessionUpdate {
	return UpdateUserMessage(TextBlock(text))
}

// UpdateAgentMessage builds an agent_message_chunk update.
func UpdateAgentMessage(content ContentBlock) SessionUpdate {
	return SessionUpdate{AgentMessageChunk: &ContentChunk{Content: content}}
}

// UpdateAgentMessageText builds an agent_message_chunk update from text.
func UpdateAgentMessageText(text string) SessionUpdate {
	return UpdateAgentMessage(TextBlock(text))
}

// UpdateAgentThought builds an agent_thought_chunk update.
func UpdateAgentThought(content ContentBlock) SessionUpdate {
	return SessionUpdate{AgentThoughtChunk: &ContentChunk{Content: content}}
}

// UpdateAgentThoughtText builds an agent_thought_chunk update from text.
func UpdateAgentThoughtText(text string) SessionUpdate {
	return UpdateAgentThought(TextBlock(text))
}

// UpdatePlan builds a plan update from its entries.
func UpdatePlan(entries ...PlanEntry) SessionUpdate {
	return SessionUpdate{Plan: &Plan{Entries: entries}}
}

// ToolCallOption modifies a tool_call start update.
type ToolCallOption func(*ToolCallStart)

// StartToolCall builds a tool_call update with the required fields and
// applies the options.
func StartToolCall(id, title string, opts ...ToolCallOption) SessionUpdate {
	tc := ToolCallStart{
		ToolCallID: id,
		Title:      title,
	}
	for _, opt := range opts {
		opt(&tc)
	}

	return SessionUpdate{ToolCall: &tc}
}

// WithKind sets the tool kind on a tool_call start.
func WithKind(k ToolKind) ToolCallOption {
	return func(tc *ToolCallStart) { tc.Kind = k }
}

// WithStatus sets the initial status on a tool_call start.
func WithStatus(s ToolCallStatus) ToolCallOption {
	return func(tc *ToolCallStart) { tc.Status = s }
}

// WithContent sets the initial content on a tool_call start.
func WithContent(content ...ToolCallContent) ToolCallOption {
	return func(tc *ToolCallStart) { tc.Content = content }
}

// WithLocations sets the touched file locations on a tool_call start.
func WithLocations(locations ...ToolCallLocation) ToolCallOption {
	return func(tc *ToolCallStart) { tc.Locations = locations }
}

// WithRawInput attaches the tool's raw input on a tool_call start.
func WithRawInput(v any) ToolCallOption {
	return func(tc *ToolCallStart) { tc.RawInput = v }
}

// ToolCallUpdateOption modifies a tool_call_update.
type ToolCallUpdateOption func(*ToolCallUpdate)

// UpdateToolCall builds a tool_call_update for the given id and applies the
// options.
func UpdateToolCall(id string, opts ...ToolCallUpdateOption) SessionUpdate {
	tu := ToolCallUpdate{ToolCallID: id}
	for _, opt := range opts {
		opt(&tu)
	}

	return SessionUpdate{ToolCallUpdate: &tu}
}

// WithUpdateTitle replaces the title.
func WithUpdateTitle(title string) ToolCallUpdateOption {
	return func(tu *ToolCallUpdate) { tu.Title = Ptr(title) }
}

// WithUpdateStatus replaces the status.
func WithUpdateStatus(s ToolCallStatus) ToolCallUpdateOption {
	return func(tu *ToolCallUpdate) { tu.Status = Ptr(s) }
}

// WithUpdateContent replaces the content collection.
func WithUpdateContent(content ...ToolCallContent) ToolCallUpdateOption {
	return func(tu *ToolCallUpdate) { tu.Content = content }
}

// WithUpdateRawOutput attaches the tool's raw output.
func WithUpdateRawOutput(v any) ToolCallUpdateOption {
	return func(tu *ToolCallUpdate) { tu.RawOutput = v }
}

// ToolContent wraps a content block as tool-call content.
func ToolContent(block ContentBlock) ToolCallContent {
	return ToolCallContent{Content: &ToolCallContentBlock{Type: "content", Content: block}}
}

// ToolDiffContent builds diff tool-call content for a file edit.
func ToolDiffContent(path, newText string, oldText ...string) ToolCallContent {
	var old *string
	if len(oldText) > 0 {
		old = &oldText[0]
	}

	return ToolCallContent{Diff: &ToolCallDiff{Type: "diff", Path: path, OldText: old, NewText: newText}}
}

// ToolTerminalRef references a terminal from tool-call content.
func ToolTerminalRef(terminalID string) ToolCallContent {
	return ToolCallContent{Terminal: &ToolCallTerminal{Type: "terminal", TerminalID: terminalID}}
}
