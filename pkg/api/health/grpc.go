package health

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCServer wraps a *grpc.Server registered with the standard
// grpc_health_v1 health service and reflection, the same two calls the
// teacher's pkg/api/grpc/server.go makes before its domain-specific
// VectorDB service registration (omitted here: SLASH has no RPC mutation
// surface, only health).
type GRPCServer struct {
	server   *grpc.Server
	listener net.Listener
}

// NewGRPCServer builds and registers, but does not yet start, the gRPC
// health/reflection server listening on addr.
func NewGRPCServer(addr string, reporter *Reporter) (*GRPCServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("health: listen on %s: %w", addr, err)
	}

	s := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(s, reporter.GRPCHealthServer())
	reflection.Register(s)

	return &GRPCServer{server: s, listener: listener}, nil
}

// Serve blocks, accepting connections until Stop is called.
func (g *GRPCServer) Serve() error {
	return g.server.Serve(g.listener)
}

// Stop gracefully shuts down the gRPC server.
func (g *GRPCServer) Stop() {
	g.server.GracefulStop()
}
