package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rakeshgangwar/f1-mcp-server/internal/f1"
)

// maxLineBytes bounds one incoming frame. Requests are tiny; the headroom
// covers pathological argument payloads without letting a client exhaust
// memory.
const maxLineBytes = 1024 * 1024

// Server reads one JSON-RPC message per line and answers on the writer.
// Requests are handled concurrently so a slow bridge call never blocks a
// ping; writes are serialized so frames never interleave.
type Server struct {
	dispatcher *f1.Dispatcher
	log        zerolog.Logger
	name       string
	version    string

	mu  sync.Mutex
	out io.Writer
	wg  sync.WaitGroup
}

// NewServer returns a stdio MCP server backed by the given dispatcher.
func NewServer(dispatcher *f1.Dispatcher, log zerolog.Logger, name, version string) *Server {
	return &Server{
		dispatcher: dispatcher,
		log:        log.With().Str("component", "mcp").Logger(),
		name:       name,
		version:    version,
	}
}

// Serve pumps messages until the reader is exhausted or ctx is canceled.
// On a clean EOF it drains in-flight handlers before returning.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = out

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	s.log.Info().Msg("listening on stdio")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			s.wg.Wait()
			if err != nil {
				return fmt.Errorf("read transport: %w", err)
			}
			return nil
		case line := <-lines:
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			s.dispatchLine(ctx, line)
		}
	}
}

func (s *Server) dispatchLine(ctx context.Context, line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.write(response{
			JSONRPC: jsonrpcVersion,
			Error:   &rpcError{Code: codeParseError, Message: "parse error: " + err.Error()},
		})
		return
	}

	if len(req.ID) == 0 {
		s.handleNotification(req)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Str("method", req.Method).Msg("handler panicked")
				s.write(response{
					JSONRPC: jsonrpcVersion,
					ID:      req.ID,
					Error:   &rpcError{Code: codeInternalError, Message: "internal error"},
				})
			}
		}()
		s.write(s.handle(ctx, req))
	}()
}

func (s *Server) handleNotification(req request) {
	switch req.Method {
	case "notifications/initialized":
		s.log.Debug().Msg("client initialized")
	default:
		s.log.Debug().Str("method", req.Method).Msg("ignoring notification")
	}
}

func (s *Server) handle(ctx context.Context, req request) response {
	resp := response{JSONRPC: jsonrpcVersion, ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
			"serverInfo": map[string]any{
				"name":    s.name,
				"version": s.version,
			},
		}
	case "ping":
		resp.Result = struct{}{}
	case "tools/list":
		resp.Result = map[string]any{"tools": s.dispatcher.Tools()}
	case "tools/call":
		return s.handleCall(ctx, req)
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}
	return resp
}

func (s *Server) handleCall(ctx context.Context, req request) response {
	resp := response{JSONRPC: jsonrpcVersion, ID: req.ID}

	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		resp.Error = &rpcError{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}
		return resp
	}
	if params.Name == "" {
		resp.Error = &rpcError{Code: codeInvalidParams, Message: "invalid params: missing tool name"}
		return resp
	}

	result, err := s.dispatcher.Call(ctx, params.Name, params.Arguments)
	switch {
	case errors.Is(err, f1.ErrUnknownTool):
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: err.Error()}
	case err != nil:
		resp.Error = &rpcError{Code: codeInternalError, Message: err.Error()}
	default:
		resp.Result = result
	}
	return resp
}

// write marshals and emits one frame under the write lock.
func (s *Server) write(resp response) {
	if len(resp.ID) == 0 {
		resp.ID = json.RawMessage("null")
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal response")
		data = []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"error":{"code":%d,"message":"internal error"}}`,
			resp.ID, codeInternalError))
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		s.log.Error().Err(err).Msg("write response")
	}
}
