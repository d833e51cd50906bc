package health

import (
	"context"
	"testing"

	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestNewReporterStartsNotServing(t *testing.T) {
	r := NewReporter()
	resp, err := r.GRPCHealthServer().Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.Status)
	}
}

func TestUpdateFlipsToServing(t *testing.T) {
	r := NewReporter()
	r.Update(Snapshot{Phase: "merge", DeltaSquared: 144, ClusterCount: 3})

	resp, err := r.GRPCHealthServer().Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.Status)
	}

	snap := r.Current()
	if snap.Phase != "merge" || snap.ClusterCount != 3 {
		t.Errorf("Current() = %+v", snap)
	}
}

func TestMarkDoneFlipsBackToNotServing(t *testing.T) {
	r := NewReporter()
	r.Update(Snapshot{Phase: "emit"})
	r.MarkDone()

	resp, err := r.GRPCHealthServer().Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.Status)
	}
}

func TestDetailsStruct(t *testing.T) {
	r := NewReporter()
	r.Update(Snapshot{Phase: "split", BCubedF1: 0.98})
	s, err := r.DetailsStruct()
	if err != nil {
		t.Fatalf("DetailsStruct: %v", err)
	}
	if s.Fields["phase"].GetStringValue() != "split" {
		t.Errorf("phase field = %v", s.Fields["phase"])
	}
}
