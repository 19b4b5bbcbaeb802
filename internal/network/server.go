package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/query"
	"github.com/leengari/statusd/internal/engine"
	"github.com/leengari/statusd/internal/logging"
	"github.com/leengari/statusd/internal/parser"
)

// Request is one query as sent by a client, either structured or as
// Livestatus query text in Query
type Request struct {
	Query          string            `json:"query,omitempty"`
	Table          string            `json:"table"`
	Columns        []string          `json:"columns,omitempty"`
	Filters        []query.Condition `json:"filters,omitempty"`
	Stats          []query.Stat      `json:"stats,omitempty"`
	AuthUser       string            `json:"auth_user,omitempty"`
	TimezoneOffset int               `json:"timezone_offset,omitempty"` // seconds
}

// Response is the answer to one Request. Error is set instead of rows when
// the query failed.
type Response struct {
	QueryID string   `json:"query_id,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Server answers JSON queries over TCP
type Server struct {
	engine *engine.Engine
	users  func(name string) auth.User
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewServer creates a server; users maps an auth_user to its User
func NewServer(eng *engine.Engine, users func(name string) auth.User) *Server {
	return &Server{
		engine: eng,
		users:  users,
		logger: logging.For("statusd.network"),
	}
}

// ListenAndServe binds addr and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("Running on address", "address", listener.Addr().String())
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done. It closes the
// listener and all open connections, then waits for their handlers.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()
	defer s.wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Error("Failed to accept connection", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return // Connection closed
			}
			s.logger.Error("decode error", "error", err)
			_ = encoder.Encode(&Response{Error: "invalid request format: " + err.Error()})
			return
		}

		if err := encoder.Encode(s.execute(&req)); err != nil {
			// Encode writes nothing when marshaling fails, so the client
			// still gets exactly one response.
			s.logger.Error("encode error", "error", err)
			if err := encoder.Encode(&Response{Error: "cannot encode response: " + err.Error()}); err != nil {
				return
			}
		}
	}
}

func (s *Server) execute(req *Request) *Response {
	if req.Query != "" {
		q, err := parser.New(req.Query, time.Now()).Parse()
		if err != nil {
			return &Response{Error: err.Error()}
		}
		req = &Request{
			Table:          q.Table,
			Columns:        q.Columns,
			Filters:        q.Filters,
			Stats:          q.Stats,
			AuthUser:       q.AuthUser,
			TimezoneOffset: int(q.TimezoneOffset / time.Second),
		}
	}

	var user auth.User = auth.NoAuth{}
	if s.users != nil {
		user = s.users(req.AuthUser)
	}

	result, err := s.engine.Execute(&query.Request{
		Table:          req.Table,
		Columns:        req.Columns,
		Filters:        req.Filters,
		Stats:          req.Stats,
		User:           user,
		TimezoneOffset: time.Duration(req.TimezoneOffset) * time.Second,
	})
	if err != nil {
		return &Response{Error: err.Error()}
	}
	return &Response{
		QueryID: result.QueryID,
		Columns: result.Columns,
		Rows:    result.Rows,
	}
}
