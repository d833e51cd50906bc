package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/therealutkarshpriyadarshi/slash/pkg/cluster"
	"github.com/therealutkarshpriyadarshi/slash/pkg/clustercounter"
	"github.com/therealutkarshpriyadarshi/slash/pkg/config"
	"github.com/therealutkarshpriyadarshi/slash/pkg/emit"
	"github.com/therealutkarshpriyadarshi/slash/pkg/ingest"
	"github.com/therealutkarshpriyadarshi/slash/pkg/observability"
	"github.com/therealutkarshpriyadarshi/slash/pkg/optindex"
	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

// runCluster drives the full pipeline (spec §6's `cluster` and
// `recluster` commands share every stage except seeding and the final
// quality report): ingest, OptimalIndex permutation search,
// SingleLinkMerger, DensitySplitter, then emit. In recluster mode the
// input's own category column seeds each point's starting label and the
// resulting partition is scored against it with BCubed (spec §7's
// "quality shortfall" kind: reported, not fatal).
func runCluster(args []string, recluster bool) error {
	name := "cluster"
	if recluster {
		name = "recluster"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
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

	part, _, _, _, bcubedF1, hasBCubed, err := runPipeline(records, cfg, recluster, logger)
	if err != nil {
		return err
	}

	if recluster && hasBCubed && bcubedF1 < cfg.AcceptableBCubed {
		logger.Warnf("quality shortfall: BCubed f1 %.4f is below acceptable_bcubed %.4f", bcubedF1, cfg.AcceptableBCubed)
	}

	out, closeOut, err := openOutput(cfg.Output.OutputDataFile)
	if err != nil {
		return err
	}
	defer closeOut()

	return logger.LogOperation("emit", func() error {
		return emit.Write(out, part, records, emit.OptionsFromConfig(cfg.Output))
	})
}

// runPipeline runs OptimalIndex, SingleLinkMerger, and DensitySplitter
// over already-ingested records, returning the resulting partition. When
// the input is degenerate (spec §7: N<2, or every point has zero
// dimensions) it returns a single-cluster partition with a logged
// warning instead of running the search.
func runPipeline(records []ingest.Record, cfg *config.Config, recluster bool, logger *observability.Logger) (part *cluster.Partition, deltaSquared uint64, precision, recall, f1 float64, hasBCubed bool, err error) {
	if len(records) < 2 || (len(records) > 0 && records[0].Point.Dim() == 0) {
		logger.Warnf("degenerate input (%d records): returning a single-cluster partition", len(records))
		part = cluster.New()
		for _, rec := range records {
			if err := part.Add(rec.Point, "cluster-0"); err != nil {
				return nil, 0, 0, 0, 0, false, err
			}
		}
		return part, 0, 0, 0, 0, false, nil
	}

	pts := make([]point.Point, len(records))
	rows := make([][]uint32, len(records))
	for i, rec := range records {
		pts[i] = rec.Point
		row := make([]uint32, rec.Point.Dim())
		for d := 0; d < rec.Point.Dim(); d++ {
			row[d] = rec.Point.Coord(d)
		}
		rows[i] = row
	}

	counterParams := clustercounter.DefaultParams()
	counterParams.OutlierSize = cfg.Index.Budget.OutlierSize

	optParams := optindex.Params{
		MaxTrials:                       cfg.Index.Budget.MaxTrials,
		MaxIterationsWithoutImprovement: cfg.Index.Budget.MaxIterationsWithoutImprovement,
		BitsPerDimension:                cfg.Index.BitsPerDimension,
		UseSample:                       cfg.Index.Budget.UseSample,
		Workers:                         4,
		CounterParams:                   counterParams,
		ProgressLogInterval:             optindex.DefaultParams().ProgressLogInterval,
	}

	var result optindex.Result
	err = logger.LogOperation("optindex", func() error {
		var searchErr error
		result, searchErr = optindex.Search(context.Background(), pts, rows, optParams, nil)
		return searchErr
	})
	if err != nil {
		return nil, 0, 0, 0, 0, false, fmt.Errorf("optindex: %w", err)
	}
	logger.Infof("optindex: best permutation gives %d clusters at delta^2=%d over %d trials", result.ClusterCount, result.DeltaSquared, result.TrialsRun)

	curveOrder := make([]point.Point, len(result.CurveOrder))
	for i, idx := range result.CurveOrder {
		curveOrder[i] = pts[idx]
	}

	var seedLabels map[uint64]string
	if recluster {
		seedLabels = make(map[uint64]string, len(records))
		for _, rec := range records {
			if rec.Category != "" {
				seedLabels[rec.Point.ID()] = rec.Category
			}
		}
	}

	mergerParams := cluster.Params{
		MaxNeighborsToCompare:     cfg.HilbertClassifier.MaxNeighborsToCompare,
		UseExactClusterDistance:   cfg.HilbertClassifier.UseExactClusterDistance,
		OutlierDistanceMultiplier: cfg.HilbertClassifier.OutlierDistanceMultiplier,
		OutlierSize:               cfg.Index.Budget.OutlierSize,
		Workers:                   4,
	}

	err = logger.LogOperation("merge", func() error {
		var mergeErr error
		part, mergeErr = cluster.Merge(curveOrder, result.DeltaSquared, mergerParams, seedLabels)
		return mergeErr
	})
	if err != nil {
		return nil, 0, 0, 0, 0, false, fmt.Errorf("merge: %w", err)
	}

	if !cfg.DensityClassifier.Skip {
		densityParams := cluster.DensityParams{
			UnmergeableSize:              int(cfg.DensityClassifier.UnmergeableSizeFraction * float64(len(records))),
			NeighborhoodRadiusMultiplier: cfg.DensityClassifier.NeighborhoodRadiusMultiplier,
			MergeableShrinkage:           cfg.DensityClassifier.MergeableShrinkage,
			OutlierSize:                  cfg.DensityClassifier.OutlierSize,
			Skip:                         false,
		}
		err = logger.LogOperation("split", func() error {
			var splitErr error
			part, splitErr = cluster.Split(part, result.DeltaSquared, densityParams)
			return splitErr
		})
		if err != nil {
			return nil, 0, 0, 0, 0, false, fmt.Errorf("split: %w", err)
		}
	}

	if !recluster {
		return part, result.DeltaSquared, 0, 0, 0, false, nil
	}

	// A cluster that NeedsReclustering says is already well-formed keeps
	// its original seed label instead of whatever this run recomputed for
	// it, rather than discarding a label the input already trusted.
	for _, label := range part.Labels() {
		if cluster.NeedsReclustering(part, label) {
			continue
		}
		for _, p := range part.PointsIn(label) {
			if seedLabel, ok := seedLabels[p.ID()]; ok {
				part.Move(p, seedLabel)
			}
		}
	}

	seedPart := cluster.New()
	for _, rec := range records {
		label := rec.Category
		if label == "" {
			label = "unlabeled"
		}
		if addErr := seedPart.Add(rec.Point, label); addErr != nil {
			return nil, 0, 0, 0, 0, false, addErr
		}
	}
	precision, recall, f1 = cluster.BCubed(part, seedPart)
	return part, result.DeltaSquared, precision, recall, f1, true, nil
}
