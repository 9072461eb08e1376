// Package server is emdrive's transport layer: an HTTP interface for
// SQL over the request body or query string, and an optional gRPC
// mirror of the same query surface. It parses and validates
// statements, hands them to the executor over its bounded channel,
// and shapes replies as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emdrive/emdrive/internal/config"
	"github.com/emdrive/emdrive/internal/executor"
	"github.com/emdrive/emdrive/internal/logging"
	"github.com/emdrive/emdrive/internal/sql"
)

// Server fronts the executor with HTTP and gRPC listeners.
type Server struct {
	cfg      *config.Config
	requests chan<- executor.Payload
}

// New returns a server that enqueues statements on the executor's
// request channel.
func New(cfg *config.Config, requests chan<- executor.Payload) *Server {
	return &Server{cfg: cfg, requests: requests}
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	httpAddress := net.JoinHostPort(s.cfg.TCPListenHost, strconv.Itoa(int(s.cfg.TCPListenPort)))
	httpServer := &http.Server{
		Addr:        httpAddress,
		Handler:     s.routes(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	group.Go(func() error {
		logging.Info("listening", "protocol", "http", "address", httpAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if s.cfg.GRPCListenPort != 0 {
		group.Go(func() error { return s.runGRPC(ctx) })
	}

	return group.Wait()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.serveStatement(r.Context(), w, string(body), false)
	case http.MethodGet:
		query := r.URL.Query().Get("query")
		if query == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.serveStatement(r.Context(), w, query, true)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) serveStatement(ctx context.Context, w http.ResponseWriter, input string, readOnly bool) {
	result, err := s.Execute(ctx, input, readOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	rows := make([]NamedRow, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = NamedRow{Columns: result.ColumnNames, Row: row}
	}
	body, err := json.Marshal(rows)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Execute parses, validates, enqueues, and awaits one statement.
func (s *Server) Execute(ctx context.Context, input string, readOnly bool) (*executor.QueryResult, error) {
	statement, err := sql.ParseStatement(input)
	if err != nil {
		return nil, err
	}
	if readOnly && !sql.IsReadOnly(statement) {
		return nil, &sql.ValidationError{
			Message: "Only SELECT statements may be executed over GET.",
		}
	}
	// The reply slot is buffered so an abandoned request never blocks
	// the executor.
	reply := make(chan executor.Outcome, 1)
	select {
	case s.requests <- executor.Payload{Statement: statement, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case outcome := <-reply:
		return outcome.Result, outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func writeError(w http.ResponseWriter, err error) {
	var syntaxErr *sql.SyntaxError
	var validationErr *sql.ValidationError
	var body []byte
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &syntaxErr):
		status = http.StatusBadRequest
		body, _ = json.Marshal(syntaxErr)
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		body, _ = json.Marshal(validationErr)
	default:
		logging.Error("request failed", "error", err)
		body, _ = json.Marshal(map[string]string{
			"type":    "internal",
			"message": "Internal server error.",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
