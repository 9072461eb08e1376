package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/emdrive/emdrive/internal/logging"
)

// The gRPC mirror exposes the same query surface as HTTP for clients
// that prefer a persistent channel. The service descriptor is written
// by hand and messages travel as JSON - no protobuf involved.

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// QueryRequest carries one SQL statement.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse carries the shaped result or the error body.
type QueryResponse struct {
	Columns []string          `json:"columns"`
	Rows    []json.RawMessage `json:"rows"`
	Error   json.RawMessage   `json:"error,omitempty"`
}

// Query executes one statement, mirroring the HTTP POST surface.
func (s *Server) Query(ctx context.Context, request *QueryRequest) (*QueryResponse, error) {
	result, err := s.Execute(ctx, request.Query, false)
	if err != nil {
		body, marshalErr := json.Marshal(err)
		if marshalErr != nil {
			body, _ = json.Marshal(map[string]string{
				"type":    "internal",
				"message": "Internal server error.",
			})
		}
		return &QueryResponse{Error: body}, nil
	}
	response := &QueryResponse{Columns: result.ColumnNames}
	for _, row := range result.Rows {
		shaped, err := NamedRow{Columns: result.ColumnNames, Row: row}.MarshalJSON()
		if err != nil {
			return nil, err
		}
		response.Rows = append(response.Rows, shaped)
	}
	return response, nil
}

func queryHandler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(QueryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/emdrive.Emdrive/Query"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).Query(ctx, req.(*QueryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func (s *Server) runGRPC(ctx context.Context) error {
	address := net.JoinHostPort(s.cfg.TCPListenHost, strconv.Itoa(int(s.cfg.GRPCListenPort)))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&grpc.ServiceDesc{
		ServiceName: "emdrive.Emdrive",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Query", Handler: queryHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "emdrive",
	}, s)
	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()
	logging.Info("listening", "protocol", "grpc", "address", address)
	if err := grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}
