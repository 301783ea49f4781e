package socketrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinytelemetry/unfold/internal/model"
)

const (
	// scannerInitBufSize is the initial buffer size for the per-connection scanner (64 KB).
	scannerInitBufSize = 64 * 1024
	// scannerMaxTokenSize is the maximum request size the scanner will accept (1 MB).
	scannerMaxTokenSize = 1024 * 1024
)

// Server exposes a model.Engine over a Unix domain socket using JSON-RPC 2.0.
type Server struct {
	socketPath string
	engine     model.Engine
	listener   net.Listener
	wg         sync.WaitGroup
	quit       chan struct{}
	stopOnce   sync.Once

	connMu sync.Mutex
	conns  map[net.Conn]struct{}

	Logger zerolog.Logger
}

// NewServer creates a new socket RPC server.
func NewServer(socketPath string, engine model.Engine) *Server {
	return &Server{
		socketPath: socketPath,
		engine:     engine,
		quit:       make(chan struct{}),
		conns:      make(map[net.Conn]struct{}),
		Logger:     zerolog.Nop(),
	}
}

// Start begins listening on the Unix socket and accepting connections.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("socketrpc: mkdir: %w", err)
	}

	// Remove a stale socket, but refuse to steal a live one.
	if _, err := os.Stat(s.socketPath); err == nil {
		conn, dialErr := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond)
		if dialErr != nil {
			os.Remove(s.socketPath)
		} else {
			conn.Close()
			return fmt.Errorf("socketrpc: another server is already listening on %s", s.socketPath)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("socketrpc: listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	s.Logger.Info().Str("socket", s.socketPath).Msg("socketrpc: listening")
	return nil
}

// Stop closes the listener and open connections, waits for handlers to
// finish and removes the socket file. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
		s.connMu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.connMu.Unlock()
		s.wg.Wait()
		os.Remove(s.socketPath)
	})
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				s.Logger.Warn().Err(err).Msg("socketrpc: accept error")
				// Transient errors (fd limits) must not kill the loop.
				time.Sleep(10 * time.Millisecond)
				continue
			}
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// track registers conn unless the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		select {
		case <-s.quit:
			return
		default:
		}

		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "parse error"}})
			continue
		}

		if err := encoder.Encode(s.dispatch(req)); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{JSONRPC: "2.0", ID: req.ID}

	marshalResult := func(v interface{}, err error) Response {
		if err != nil {
			resp.Error = &RPCError{Code: codeApplication, Message: err.Error()}
			return resp
		}
		data, merr := json.Marshal(v)
		if merr != nil {
			resp.Error = &RPCError{Code: codeInternal, Message: merr.Error()}
			return resp
		}
		resp.Result = data
		return resp
	}

	invalidParams := func(err error) Response {
		resp.Error = &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
		return resp
	}

	// command applies a control operation and answers with the new snapshot.
	command := func(err error) Response {
		if err != nil {
			return marshalResult(nil, err)
		}
		return marshalResult(s.engine.Snapshot())
	}

	switch req.Method {
	case "Snapshot":
		return marshalResult(s.engine.Snapshot())

	case "Timeline":
		return marshalResult(s.engine.Timeline())

	case "Play":
		return command(s.engine.Play())

	case "Pause":
		return command(s.engine.Pause())

	case "Reset":
		return command(s.engine.Reset())

	case "Seek":
		var p struct{ Progress *float64 }
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if p.Progress == nil {
			return invalidParams(fmt.Errorf("missing Progress"))
		}
		return command(s.engine.Seek(*p.Progress))

	case "Step":
		var p struct{ Direction model.Direction }
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if p.Direction != model.Forward && p.Direction != model.Back {
			return invalidParams(fmt.Errorf("direction must be 1 or -1, got %d", p.Direction))
		}
		return command(s.engine.Step(p.Direction))

	case "SetSpeed":
		var p struct{ Multiplier *float64 }
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if p.Multiplier == nil {
			return invalidParams(fmt.Errorf("missing Multiplier"))
		}
		return command(s.engine.SetSpeed(*p.Multiplier))

	case "JumpToEvent":
		var p struct{ Index *int }
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if p.Index == nil {
			return invalidParams(fmt.Errorf("missing Index"))
		}
		return command(s.engine.JumpToEvent(*p.Index))

	default:
		resp.Error = &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp
	}
}
