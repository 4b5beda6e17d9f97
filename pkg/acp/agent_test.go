package acp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/conneroisu/acp/pkg/acp/internal/testutil"
)

// testAgent implements Agent with overridable function fields.
type testAgent struct {
	initialize func(ctx context.Context, params *InitializeRequest) (*InitializeResponse, error)
	newSession func(ctx context.Context, params *NewSessionRequest) (*NewSessionResponse, error)
	prompt     func(ctx context.Context, params *PromptRequest) (*PromptResponse, error)
	cancelled  chan string
}

func (a *testAgent) Initialize(ctx context.Context, params *InitializeRequest) (*InitializeResponse, error) {
	if a.initialize != nil {
		return a.initialize(ctx, params)
	}

	return &InitializeResponse{ProtocolVersion: ProtocolVersion}, nil
}

func (a *testAgent) Authenticate(context.Context, *AuthenticateRequest) error { return nil }

func (a *testAgent) NewSession(ctx context.Context, params *NewSessionRequest) (*NewSessionResponse, error) {
	if a.newSession != nil {
		return a.newSession(ctx, params)
	}

	return &NewSessionResponse{SessionID: "sess-test"}, nil
}

func (a *testAgent) Prompt(ctx context.Context, params *PromptRequest) (*PromptResponse, error) {
	if a.prompt != nil {
		return a.prompt(ctx, params)
	}

	return &PromptResponse{StopReason: StopReasonEndTurn}, nil
}

func (a *testAgent) Cancel(_ context.Context, params *CancelNotification) error {
	if a.cancelled != nil {
		a.cancelled <- params.SessionID
	}

	return nil
}

// loaderAgent adds the session-resume capability on top of testAgent.
type loaderAgent struct {
	testAgent
	loaded chan string
}

func (a *loaderAgent) LoadSession(_ context.Context, params *LoadSessionRequest) error {
	a.loaded <- params.SessionID

	return nil
}

// testClient implements Client with overridable function fields.
type testClient struct {
	readTextFile      func(ctx context.Context, params *ReadTextFileRequest) (*ReadTextFileResponse, error)
	writeTextFile     func(ctx context.Context, params *WriteTextFileRequest) error
	requestPermission func(ctx context.Context, params *RequestPermissionRequest) (*RequestPermissionResponse, error)
	updates           chan *SessionNotification
}

func (c *testClient) ReadTextFile(ctx context.Context, params *ReadTextFileRequest) (*ReadTextFileResponse, error) {
	if c.readTextFile != nil {
		return c.readTextFile(ctx, params)
	}

	return &ReadTextFileResponse{Content: ""}, nil
}

func (c *testClient) WriteTextFile(ctx context.Context, params *WriteTextFileRequest) error {
	if c.writeTextFile != nil {
		return c.writeTextFile(ctx, params)
	}

	return nil
}

func (c *testClient) RequestPermission(ctx context.Context, params *RequestPermissionRequest) (*RequestPermissionResponse, error) {
	if c.requestPermission != nil {
		return c.requestPermission(ctx, params)
	}

	return &RequestPermissionResponse{
		Outcome: RequestPermissionOutcome{Cancelled: &PermissionOutcomeCancelled{}},
	}, nil
}

func (c *testClient) SessionUpdate(_ context.Context, params *SessionNotification) error {
	if c.updates != nil {
		c.updates <- params
	}

	return nil
}

// connectPair wires an agent and a client over in-memory pipes and returns
// both typed connection ends.
func connectPair(t *testing.T, agent Agent, client Client) (*AgentSideConnection, *ClientSideConnection) {
	t.Helper()

	agentEnd, clientEnd := testutil.Duplex()
	asc := NewAgentSideConnection(agent, agentEnd, agentEnd)
	csc := NewClientSideConnection(client, clientEnd, clientEnd)
	t.Cleanup(func() {
		_ = asc.Close()
		_ = csc.Close()
	})

	return asc, csc
}

func testCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	return ctx
}

func TestInitializeNegotiation(t *testing.T) {
	agent := &testAgent{
		initialize: func(_ context.Context, params *InitializeRequest) (*InitializeResponse, error) {
			if params.ProtocolVersion != ProtocolVersion {
				t.Errorf("protocolVersion = %d, want %d", params.ProtocolVersion, ProtocolVersion)
			}
			if !params.ClientCapabilities.Fs.ReadTextFile {
				t.Error("fs.readTextFile capability was lost in transit")
			}

			return &InitializeResponse{
				ProtocolVersion: ProtocolVersion,
				AgentCapabilities: AgentCapabilities{
					PromptCapabilities: PromptCapabilities{Image: true},
				},
				AuthMethods: []AuthMethod{{ID: "oauth", Name: "OAuth"}},
			}, nil
		},
	}
	_, csc := connectPair(t, agent, &testClient{})

	resp, err := csc.Initialize(testCtx(t), &InitializeRequest{
		ProtocolVersion: ProtocolVersion,
		ClientCapabilities: ClientCapabilities{
			Fs: FileSystemCapability{ReadTextFile: true, WriteTextFile: true},
		},
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if resp.ProtocolVersion != ProtocolVersion {
		t.Errorf("protocolVersion = %d, want %d", resp.ProtocolVersion, ProtocolVersion)
	}
	if !resp.AgentCapabilities.PromptCapabilities.Image {
		t.Error("image prompt capability was lost in transit")
	}
	if len(resp.AuthMethods) != 1 || resp.AuthMethods[0].ID != "oauth" {
		t.Errorf("authMethods = %+v, want one entry with id oauth", resp.AuthMethods)
	}
}

func TestAuthenticateResolvesOnEmptyResult(t *testing.T) {
	_, csc := connectPair(t, &testAgent{}, &testClient{})

	if err := csc.Authenticate(testCtx(t), &AuthenticateRequest{MethodID: "oauth"}); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
}

func TestPromptStreamsUpdatesBeforeCompleting(t *testing.T) {
	var asc *AgentSideConnection

	agent := &testAgent{
		prompt: func(ctx context.Context, params *PromptRequest) (*PromptResponse, error) {
			for _, text := range []string{"thinking...", "done"} {
				err := asc.SessionUpdate(ctx, &SessionNotification{
					SessionID: params.SessionID,
					Update: SessionUpdate{
						AgentMessageChunk: &ContentChunk{Content: ContentBlock{Text: &TextContent{Text: text}}},
					},
				})
				if err != nil {
					return nil, err
				}
			}

			return &PromptResponse{StopReason: StopReasonEndTurn}, nil
		},
	}
	client := &testClient{updates: make(chan *SessionNotification, 4)}
	asc, csc := connectPair(t, agent, client)

	resp, err := csc.Prompt(testCtx(t), &PromptRequest{
		SessionID: "sess-1",
		Prompt:    []ContentBlock{{Text: &TextContent{Text: "hi"}}},
	})
	if err != nil {
		t.Fatalf("prompt failed: %v", err)
	}
	if resp.StopReason != StopReasonEndTurn {
		t.Errorf("stopReason = %q, want %q", resp.StopReason, StopReasonEndTurn)
	}

	for _, want := range []string{"thinking...", "done"} {
		select {
		case n := <-client.updates:
			chunk := n.Update.AgentMessageChunk
			if chunk == nil || chunk.Content.Text == nil {
				t.Fatalf("update is not an agent message chunk: %+v", n.Update)
			}
			if chunk.Content.Text.Text != want {
				t.Errorf("chunk = %q, want %q", chunk.Content.Text.Text, want)
			}
		case <-time.After(testTimeout):
			t.Fatal("missing session update")
		}
	}
}

func TestCancelNotificationReachesAgent(t *testing.T) {
	agent := &testAgent{cancelled: make(chan string, 1)}
	_, csc := connectPair(t, agent, &testClient{})

	if err := csc.Cancel(testCtx(t), &CancelNotification{SessionID: "sess-9"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	select {
	case id := <-agent.cancelled:
		if id != "sess-9" {
			t.Errorf("cancelled session = %q, want %q", id, "sess-9")
		}
	case <-time.After(testTimeout):
		t.Fatal("cancel never reached the agent")
	}
}

func TestLoadSessionWithoutCapability(t *testing.T) {
	_, csc := connectPair(t, &testAgent{}, &testClient{})

	err := csc.LoadSession(testCtx(t), &LoadSessionRequest{SessionID: "sess-1", Cwd: "/tmp"})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Code != CodeMethodNotFound {
		t.Fatalf("err = %v, want method-not-found request error", err)
	}
}

func TestLoadSessionWithCapability(t *testing.T) {
	agent := &loaderAgent{loaded: make(chan string, 1)}
	_, csc := connectPair(t, agent, &testClient{})

	if err := csc.LoadSession(testCtx(t), &LoadSessionRequest{SessionID: "sess-2", Cwd: "/tmp"}); err != nil {
		t.Fatalf("loadSession failed: %v", err)
	}
	if id := <-agent.loaded; id != "sess-2" {
		t.Errorf("loaded session = %q, want %q", id, "sess-2")
	}
}

func TestUnknownAgentMethodAnswered(t *testing.T) {
	agentEnd, clientEnd := testutil.Duplex()
	asc := NewAgentSideConnection(&testAgent{}, agentEnd, agentEnd)
	raw := NewConnection(nil, clientEnd, clientEnd)
	t.Cleanup(func() {
		_ = asc.Close()
		_ = raw.Close()
	})

	_, err := raw.SendRequest(testCtx(t), "session/selfdestruct", nil)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Code != CodeMethodNotFound {
		t.Fatalf("err = %v, want method-not-found request error", err)
	}
}

func TestMalformedParamsNeverReachAgent(t *testing.T) {
	agent := &testAgent{
		newSession: func(context.Context, *NewSessionRequest) (*NewSessionResponse, error) {
			t.Error("handler ran despite malformed params")

			return nil, errors.New("unreachable")
		},
	}

	agentEnd, clientEnd := testutil.Duplex()
	asc := NewAgentSideConnection(agent, agentEnd, agentEnd)
	raw := NewConnection(nil, clientEnd, clientEnd)
	t.Cleanup(func() {
		_ = asc.Close()
		_ = raw.Close()
	})

	// cwd must be a string.
	_, err := raw.SendRequest(testCtx(t), MethodSessionNew, map[string]any{"cwd": 12})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Code != CodeInvalidParams {
		t.Fatalf("err = %v, want invalid-params request error", err)
	}
}

func TestAgentErrorCodePassesThrough(t *testing.T) {
	agent := &testAgent{
		prompt: func(context.Context, *PromptRequest) (*PromptResponse, error) {
			return nil, NewAuthRequired(nil)
		},
	}
	_, csc := connectPair(t, agent, &testClient{})

	_, err := csc.Prompt(testCtx(t), &PromptRequest{SessionID: "sess-1"})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Code != CodeAuthRequired {
		t.Fatalf("err = %v, want auth-required request error", err)
	}
}

func TestAgentFileSystemCalls(t *testing.T) {
	client := &testClient{
		readTextFile: func(_ context.Context, params *ReadTextFileRequest) (*ReadTextFileResponse, error) {
			if params.Path != "/src/main.go" {
				t.Errorf("path = %q, want /src/main.go", params.Path)
			}

			return &ReadTextFileResponse{Content: "package main"}, nil
		},
	}
	asc, _ := connectPair(t, &testAgent{}, client)

	resp, err := asc.ReadTextFile(testCtx(t), &ReadTextFileRequest{SessionID: "sess-1", Path: "/src/main.go"})
	if err != nil {
		t.Fatalf("readTextFile failed: %v", err)
	}
	if resp.Content != "package main" {
		t.Errorf("content = %q, want %q", resp.Content, "package main")
	}

	if err := asc.WriteTextFile(testCtx(t), &WriteTextFileRequest{
		SessionID: "sess-1",
		Path:      "/src/out.go",
		Content:   "package out",
	}); err != nil {
		t.Fatalf("writeTextFile failed: %v", err)
	}
}

func TestConcurrentWritesKeepTheirPayloads(t *testing.T) {
	var mu sync.Mutex
	written := make(map[string]string)

	client := &testClient{
		writeTextFile: func(_ context.Context, params *WriteTextFileRequest) error {
			mu.Lock()
			defer mu.Unlock()
			written[params.Path] = params.Content

			return nil
		},
	}
	asc, _ := connectPair(t, &testAgent{}, client)

	const writers = 3

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := asc.WriteTextFile(testCtx(t), &WriteTextFileRequest{
				SessionID: "sess-1",
				Path:      fmt.Sprintf("/tmp/file-%d", i),
				Content:   fmt.Sprintf("content-%d", i),
			})
			if err != nil {
				t.Errorf("write %d failed: %v", i, err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := range writers {
		path := fmt.Sprintf("/tmp/file-%d", i)
		if written[path] != fmt.Sprintf("content-%d", i) {
			t.Errorf("written[%s] = %q", path, written[path])
		}
	}
}

func TestRequestPermissionSelectedOutcome(t *testing.T) {
	client := &testClient{
		requestPermission: func(_ context.Context, params *RequestPermissionRequest) (*RequestPermissionResponse, error) {
			if len(params.Options) != 2 {
				t.Errorf("got %d options, want 2", len(params.Options))
			}

			return &RequestPermissionResponse{
				Outcome: RequestPermissionOutcome{
					Selected: &PermissionOutcomeSelected{OptionID: params.Options[0].OptionID},
				},
			}, nil
		},
	}
	asc, _ := connectPair(t, &testAgent{}, client)

	resp, err := asc.RequestPermission(testCtx(t), &RequestPermissionRequest{
		SessionID: "sess-1",
		ToolCall:  ToolCallUpdate{ToolCallID: "tool-1"},
		Options: []PermissionOption{
			{OptionID: "allow", Name: "Allow", Kind: PermissionOptionKindAllowOnce},
			{OptionID: "reject", Name: "Reject", Kind: PermissionOptionKindRejectOnce},
		},
	})
	if err != nil {
		t.Fatalf("requestPermission failed: %v", err)
	}

	if resp.Outcome.Selected == nil {
		t.Fatalf("outcome = %+v, want selected", resp.Outcome)
	}
	if resp.Outcome.Selected.OptionID != "allow" {
		t.Errorf("optionId = %q, want %q", resp.Outcome.Selected.OptionID, "allow")
	}
}

func TestAgentSideCloseUnblocksPeer(t *testing.T) {
	block := make(chan struct{})
	agent := &testAgent{
		prompt: func(ctx context.Context, _ *PromptRequest) (*PromptResponse, error) {
			select {
			case <-block:
			case <-ctx.Done():
			}

			return &PromptResponse{StopReason: StopReasonCancelled}, nil
		},
	}
	_, csc := connectPair(t, agent, &testClient{})
	defer close(block)

	result := make(chan error, 1)
	go func() {
		_, err := csc.Prompt(context.Background(), &PromptRequest{SessionID: "sess-1"})
		result <- err
	}()

	// Give the prompt time to reach the agent, then tear down the client end.
	time.Sleep(20 * time.Millisecond)
	_ = csc.Close()

	select {
	case err := <-result:
		if !errors.Is(err, ErrConnectionClosed) {
			t.Errorf("err = %v, want ErrConnectionClosed", err)
		}
	case <-time.After(testTimeout):
		t.Fatal("prompt left hanging after close")
	}
}

// Guard against accidental interface drift.
var (
	_ Agent       = (*testAgent)(nil)
	_ AgentLoader = (*loaderAgent)(nil)
	_ Client      = (*testClient)(nil)
)
