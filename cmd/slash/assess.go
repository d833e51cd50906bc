package main

import (
	"flag"
	"fmt"

	"github.com/therealutkarshpriyadarshi/slash/pkg/cluster"
	"github.com/therealutkarshpriyadarshi/slash/pkg/ingest"
	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

// runAssess runs only C10's fast triage classifier (spec §6's `assess`
// command) and prints the resulting Tendency plus the statistics it was
// derived from.
func runAssess(args []string) error {
	fs := flag.NewFlagSet("assess", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML configuration document (default: SLASH_* env vars)")
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

	in, closeIn, err := openInput(cfg.Data.InputDataFile)
	if err != nil {
		return err
	}
	defer closeIn()

	var records []ingest.Record
	err = logger.LogOperation("ingest", func() error {
		records, err = ingest.Read(in, ingest.OptionsFromConfig(cfg.Data))
		return err
	})
	if err != nil {
		return err
	}

	pts := make([]point.Point, len(records))
	for i, rec := range records {
		pts[i] = rec.Point
	}

	params := cluster.DefaultTendencyParams()
	params.OutlierSize = cfg.Index.Budget.OutlierSize

	var result cluster.TendencyResult
	err = logger.LogOperation("assess", func() error {
		var assessErr error
		result, assessErr = cluster.Assess(pts, params)
		return assessErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("tendency: %s\n", result.Tendency)
	fmt.Printf("point_outlier_fraction: %.4f\n", result.PointOutlierFrac)
	fmt.Printf("clustered_fraction: %.4f\n", result.ClusteredFraction)
	fmt.Printf("giant_fraction: %.4f\n", result.GiantFraction)
	fmt.Printf("delta_squared: %d\n", result.DeltaSquared)
	fmt.Printf("segment_count: %d\n", result.SegmentCount)
	return nil
}
