package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/therealutkarshpriyadarshi/slash/pkg/api/health"
	"github.com/therealutkarshpriyadarshi/slash/pkg/config"
	"github.com/therealutkarshpriyadarshi/slash/pkg/emit"
	"github.com/therealutkarshpriyadarshi/slash/pkg/ingest"
	"github.com/therealutkarshpriyadarshi/slash/pkg/observability"
)

// runServe starts the ambient health/metrics service surface (SPEC_FULL
// §2.6) and, concurrently, runs one cluster/recluster pass over the
// configured input, reporting phase progress to the gRPC health service
// and Prometheus registry as it goes. This lets a supervisor poll
// liveness and progress of a long-running `cluster` invocation the same
// way the teacher's health/stats endpoints report a running server's
// readiness.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML configuration document (default: SLASH_* env vars)")
	doRecluster := fs.Bool("recluster", false, "run the piped input as a recluster instead of a cluster")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, closeLogger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	metrics := observability.NewMetrics()
	reporter := health.NewReporter()

	grpcServer, err := health.NewGRPCServer(cfg.Serve.GRPCAddress, reporter)
	if err != nil {
		return err
	}
	go func() {
		if err := grpcServer.Serve(); err != nil {
			logger.Errorf("health: gRPC server stopped: %v", err)
		}
	}()

	restServer := &http.Server{
		Addr:    cfg.Serve.RESTAddress,
		Handler: health.RESTHandler(reporter, cfg.Serve),
	}
	go func() {
		if err := restServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("health: REST server stopped: %v", err)
		}
	}()
	logger.Infof("serve: gRPC health on %s, REST on %s", cfg.Serve.GRPCAddress, cfg.Serve.RESTAddress)

	pipelineDone := make(chan error, 1)
	go func() {
		pipelineDone <- runServedPipeline(cfg, *doRecluster, logger, reporter, metrics)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-pipelineDone:
		if err != nil {
			logger.Errorf("serve: pipeline failed: %v", err)
		} else {
			logger.Infof("serve: pipeline finished, health surface still serving until interrupted")
		}
		<-sig
	case <-sig:
		logger.Infof("serve: interrupted")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = restServer.Shutdown(ctx)
	grpcServer.Stop()
	return nil
}

// runServedPipeline mirrors runCluster's stages but reports a
// health.Snapshot to reporter after each one, so /healthz and the gRPC
// health check reflect the run in progress rather than only its
// outcome, and records the final BCubed score to the Prometheus
// registry for /metrics.
func runServedPipeline(cfg *config.Config, recluster bool, logger *observability.Logger, reporter *health.Reporter, metrics *observability.Metrics) error {
	in, closeIn, err := openInput(cfg.Data.InputDataFile)
	if err != nil {
		return err
	}
	defer closeIn()

	reporter.Update(health.Snapshot{Phase: "ingest"})
	records, err := ingest.Read(in, ingest.OptionsFromConfig(cfg.Data))
	if err != nil {
		return err
	}

	reporter.Update(health.Snapshot{Phase: "pipeline"})
	part, deltaSquared, precision, recall, f1, hasBCubed, err := runPipeline(records, cfg, recluster, logger)
	if err != nil {
		return err
	}

	snap := health.Snapshot{
		Phase:        "done",
		DeltaSquared: deltaSquared,
		ClusterCount: len(part.Labels()),
	}
	if hasBCubed {
		snap.BCubedF1 = f1
		metrics.RecordBCubed(precision, recall, f1)
	}
	reporter.Update(snap)

	out, closeOut, err := openOutput(cfg.Output.OutputDataFile)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := emit.Write(out, part, records, emit.OptionsFromConfig(cfg.Output)); err != nil {
		return err
	}
	reporter.MarkDone()
	return nil
}
