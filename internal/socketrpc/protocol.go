package socketrpc

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.Engine over a Unix domain socket, one
// newline-delimited JSON object per request and per response.
//
//   Method        Params                    Result
//   ──────────    ──────────────────────    ──────────────
//   Snapshot      (none)                    model.Snapshot
//   Timeline      (none)                    deploy.Timeline
//   Play          (none)                    model.Snapshot
//   Pause         (none)                    model.Snapshot
//   Reset         (none)                    model.Snapshot
//   Seek          {Progress: float64}       model.Snapshot
//   Step          {Direction: int (±1)}     model.Snapshot
//   SetSpeed      {Multiplier: float64}     model.Snapshot
//   JumpToEvent   {Index: int}              model.Snapshot
//
// Commands answer with the snapshot taken right after they were applied.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error (engine failure)

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
	codeApplication    = -32000
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/unfold/unfold.sock, falling back to
// ~/.local/state/unfold/unfold.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "unfold", "unfold.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "unfold.sock")
	}
	return filepath.Join(home, ".local", "state", "unfold", "unfold.sock")
}
