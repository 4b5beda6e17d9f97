package acp

// ProtocolVersion is the single integer protocol version exchanged during
// initialize. Method tables are stable for a given version.
const ProtocolVersion = 1

// Wire method strings exposed by the agent.
const (
	MethodInitialize    = "initialize"
	MethodAuthenticate  = "authenticate"
	MethodSessionNew    = "session/new"
	MethodSessionLoad   = "session/load"
	MethodSessionPrompt = "session/prompt"
	MethodSessionCancel = "session/cancel"
)

// Wire method strings exposed by the client.
const (
	MethodFsReadTextFile           = "fs/read_text_file"
	MethodFsWriteTextFile          = "fs/write_text_file"
	MethodSessionRequestPermission = "session/request_permission"
	MethodSessionUpdate            = "session/update"
	MethodTerminalCreate           = "terminal/create"
	MethodTerminalOutput           = "terminal/output"
	MethodTerminalRelease          = "terminal/release"
	MethodTerminalWaitForExit      = "terminal/wait_for_exit"
	MethodTerminalKill             = "terminal/kill"
)

// AgentMethods maps symbolic operation names to the wire methods an agent
// serves. The table is fixed by ProtocolVersion; treat it as read-only.
var AgentMethods = map[string]string{
	"initialize":     MethodInitialize,
	"authenticate":   MethodAuthenticate,
	"session_new":    MethodSessionNew,
	"session_load":   MethodSessionLoad,
	"session_prompt": MethodSessionPrompt,
	"session_cancel": MethodSessionCancel,
}

// ClientMethods maps symbolic operation names to the wire methods a client
// serves. The table is fixed by ProtocolVersion; treat it as read-only.
var ClientMethods = map[string]string{
	"fs_read_text_file":          MethodFsReadTextFile,
	"fs_write_text_file":         MethodFsWriteTextFile,
	"session_request_permission": MethodSessionRequestPermission,
	"session_update":             MethodSessionUpdate,
	"terminal_create":            MethodTerminalCreate,
	"terminal_output":            MethodTerminalOutput,
	"terminal_release":           MethodTerminalRelease,
	"terminal_wait_for_exit":     MethodTerminalWaitForExit,
	"terminal_kill":              MethodTerminalKill,
}
