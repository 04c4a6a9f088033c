// Package rpc serves the tool catalogue over line-delimited JSON-RPC 2.0:
// one request object per input line, one response object per output line.
// In production the stream is stdio, so stdout carries only the wire and
// all logging goes to stderr.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/corra/internal/core/ports/driving"
	"github.com/custodia-labs/corra/internal/logger"
)

// maxLineBytes bounds a single request line. Documents travel inline in
// call_tool arguments, so the ceiling is generous.
const maxLineBytes = 10 * 1024 * 1024

// nullID stands in for requests whose own id was absent or unreadable.
var nullID = json.RawMessage("null")

// Server reads requests from in and writes responses to out.
type Server struct {
	tools driving.Tools
	in    io.Reader
	out   io.Writer

	writeMu sync.Mutex
}

// NewServer creates a new protocol server.
func NewServer(tools driving.Tools, in io.Reader, out io.Writer) *Server {
	return &Server{
		tools: tools,
		in:    in,
		out:   out,
	}
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type successResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   *wireError      `json:"error"`
}

// Run processes requests until the input stream closes or ctx is
// cancelled. Requests are handled one at a time in arrival order, so
// responses never reorder. A malformed line yields a parse error
// response and the loop keeps going; only stream end stops it.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("JSON-RPC server listening")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			logger.Warn("Unparseable request line: %v", err)
			s.writeError(nullID, codeParse, fmt.Sprintf("parse error: %v", err))
			continue
		}
		s.handle(ctx, req)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}

	logger.Info("Input stream closed, shutting down")
	return nil
}

// handle dispatches one request and writes exactly one response, echoing
// the request id byte-for-byte.
func (s *Server) handle(ctx context.Context, req request) {
	id := req.ID
	if len(id) == 0 {
		id = nullID
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeError(id, codeInvalidRequest, "invalid request: want jsonrpc 2.0 with a method")
		return
	}

	switch req.Method {
	case "list_tools":
		s.writeResult(id, s.tools.ListTools())

	case "call_tool":
		var params callParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				s.writeError(id, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))
				return
			}
		}
		if params.Name == "" {
			s.writeError(id, codeInvalidParams, "invalid params: name is required")
			return
		}

		result, err := s.tools.CallTool(ctx, params.Name, params.Arguments)
		if err != nil {
			logger.Warn("Tool %s failed: %v", params.Name, err)
			s.writeError(id, errorCode(err), err.Error())
			return
		}
		s.writeResult(id, result)

	case "ping":
		s.writeResult(id, "pong")

	default:
		s.writeError(id, codeMethodNotFound, fmt.Sprintf("method not found: %q", req.Method))
	}
}

func (s *Server) writeResult(id json.RawMessage, result any) {
	payload, err := json.Marshal(successResponse{JSONRPC: "2.0", ID: id, Result: result})
	if err != nil {
		s.writeError(id, codeServerError, fmt.Sprintf("marshal result: %v", err))
		return
	}
	s.writeLine(payload)
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	payload, err := json.Marshal(errorResponse{JSONRPC: "2.0", ID: id, Error: &wireError{Code: code, Message: message}})
	if err != nil {
		logger.Warn("Marshalling error response failed: %v", err)
		return
	}
	s.writeLine(payload)
}

func (s *Server) writeLine(payload []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(payload, '\n')); err != nil {
		logger.Warn("Writing response failed: %v", err)
	}
}
