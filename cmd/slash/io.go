package main

import (
	"fmt"
	"io"
	"os"

	"github.com/therealutkarshpriyadarshi/slash/pkg/config"
	"github.com/therealutkarshpriyadarshi/slash/pkg/observability"
)

// loadConfig reads the pipeline configuration from path if given,
// otherwise from SLASH_* environment variables over compiled-in
// defaults, and validates it (spec §7's "configuration error" kind
// must fail before any computation begins).
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadYAML(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.LoadFromEnv()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the run logger from output.log_file/log_level,
// defaulting to stdout at info level the way observability.NewDefaultLogger
// does.
func newLogger(cfg *config.Config) (*observability.Logger, func(), error) {
	level := observability.ParseLogLevel(cfg.Output.LogLevel)
	if cfg.Output.LogFile == "" {
		return observability.NewLogger(level, os.Stdout), func() {}, nil
	}
	f, err := os.OpenFile(cfg.Output.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.Output.LogFile, err)
	}
	return observability.NewLogger(level, f), func() { f.Close() }, nil
}

// openInput resolves a DataSink into a readable stream for ingest.Read.
func openInput(sink config.DataSink) (io.Reader, func(), error) {
	switch sink.Kind {
	case config.SinkStdIn, config.SinkStdOut:
		return os.Stdin, func() {}, nil
	case config.SinkSuppress:
		return nil, nil, fmt.Errorf("input data file is suppressed (\"?\"); a cluster/assess run needs input")
	default:
		f, err := os.Open(sink.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening input %s: %w", sink.Path, err)
		}
		return f, func() { f.Close() }, nil
	}
}

// openOutput resolves a DataSink into a writable stream for emit.Write.
// A suppressed sink discards output, matching the "?" sentinel's
// original meaning of "do not produce this stream".
func openOutput(sink config.DataSink) (io.Writer, func(), error) {
	switch sink.Kind {
	case config.SinkStdOut, config.SinkStdIn:
		return os.Stdout, func() {}, nil
	case config.SinkSuppress:
		return io.Discard, func() {}, nil
	default:
		f, err := os.Create(sink.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("creating output %s: %w", sink.Path, err)
		}
		return f, func() { f.Close() }, nil
	}
}
