package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if !cfg.Data.ReadHeader {
		t.Error("expected ReadHeader true by default")
	}
	if cfg.Data.IDField != "id" {
		t.Errorf("IDField = %q, want %q", cfg.Data.IDField, "id")
	}
	if cfg.Data.InputDataFile.Kind != SinkStdIn {
		t.Errorf("InputDataFile.Kind = %v, want SinkStdIn", cfg.Data.InputDataFile.Kind)
	}

	if cfg.Index.Budget.MaxTrials != 20 {
		t.Errorf("MaxTrials = %d, want 20", cfg.Index.Budget.MaxTrials)
	}
	if cfg.Index.Budget.OutlierSize != 5 {
		t.Errorf("OutlierSize = %d, want 5", cfg.Index.Budget.OutlierSize)
	}

	if cfg.HilbertClassifier.MaxNeighborsToCompare != 5 {
		t.Errorf("MaxNeighborsToCompare = %d, want 5", cfg.HilbertClassifier.MaxNeighborsToCompare)
	}
	if cfg.HilbertClassifier.UseExactClusterDistance {
		t.Error("expected UseExactClusterDistance false by default")
	}

	if cfg.DensityClassifier.OutlierSize != 5 {
		t.Errorf("DensityClassifier.OutlierSize = %d, want 5", cfg.DensityClassifier.OutlierSize)
	}

	if cfg.AcceptableBCubed != 0.98 {
		t.Errorf("AcceptableBCubed = %f, want 0.98", cfg.AcceptableBCubed)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() config failed Validate(): %v", err)
	}
}

func TestParseDataSink(t *testing.T) {
	cases := []struct {
		in   string
		kind DataSinkKind
		path string
	}{
		{"-", SinkStdIn, ""},
		{"?", SinkSuppress, ""},
		{"/tmp/points.csv", SinkFile, "/tmp/points.csv"},
	}
	for _, c := range cases {
		got := ParseDataSink(c.in)
		if got.Kind != c.kind {
			t.Errorf("ParseDataSink(%q).Kind = %v, want %v", c.in, got.Kind, c.kind)
		}
		if got.Path != c.path {
			t.Errorf("ParseDataSink(%q).Path = %q, want %q", c.in, got.Path, c.path)
		}
		if got.String() != c.in && !(c.kind == SinkStdIn) {
			// stdout also renders as "-"; only check round-trip for non-ambiguous kinds.
			if got.String() != c.in {
				t.Errorf("DataSink(%q).String() = %q, want %q", c.in, got.String(), c.in)
			}
		}
	}
}

func TestValidateRejectsOutOfRangeThresholds(t *testing.T) {
	cfg := Default()
	cfg.AcceptableBCubed = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for AcceptableBCubed > 1")
	}

	cfg = Default()
	cfg.Index.Budget.MaxTrials = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for MaxTrials == 0")
	}

	cfg = Default()
	cfg.DensityClassifier.MergeableShrinkage = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for MergeableShrinkage == 0")
	}

	cfg = Default()
	cfg.Output.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown log level")
	}
}

// TestYAMLRoundTrip exercises spec §8 end-to-end scenario 6: serializing a
// configuration and deserializing it must yield an object equal under the
// documented equality, with floating-point tolerance 1e-4.
func TestYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Data.IDField = "row_id"
	cfg.Data.InputDataFile = DataSink{Kind: SinkFile, Path: "in.csv"}
	cfg.Output.OutputDataFile = DataSink{Kind: SinkFile, Path: "out.csv"}
	cfg.HilbertClassifier.OutlierDistanceMultiplier = 4.5
	cfg.DensityClassifier.MergeableShrinkage = 0.333333
	cfg.AcceptableBCubed = 0.97531

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := WriteYAML(path, cfg); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}

	if loaded.Data.IDField != cfg.Data.IDField {
		t.Errorf("IDField = %q, want %q", loaded.Data.IDField, cfg.Data.IDField)
	}
	if loaded.Data.InputDataFile != cfg.Data.InputDataFile {
		t.Errorf("InputDataFile = %+v, want %+v", loaded.Data.InputDataFile, cfg.Data.InputDataFile)
	}
	if loaded.Output.OutputDataFile != cfg.Output.OutputDataFile {
		t.Errorf("OutputDataFile = %+v, want %+v", loaded.Output.OutputDataFile, cfg.Output.OutputDataFile)
	}
	if math.Abs(loaded.HilbertClassifier.OutlierDistanceMultiplier-cfg.HilbertClassifier.OutlierDistanceMultiplier) > 1e-4 {
		t.Errorf("OutlierDistanceMultiplier = %f, want %f", loaded.HilbertClassifier.OutlierDistanceMultiplier, cfg.HilbertClassifier.OutlierDistanceMultiplier)
	}
	if math.Abs(loaded.DensityClassifier.MergeableShrinkage-cfg.DensityClassifier.MergeableShrinkage) > 1e-4 {
		t.Errorf("MergeableShrinkage = %f, want %f", loaded.DensityClassifier.MergeableShrinkage, cfg.DensityClassifier.MergeableShrinkage)
	}
	if math.Abs(loaded.AcceptableBCubed-cfg.AcceptableBCubed) > 1e-4 {
		t.Errorf("AcceptableBCubed = %f, want %f", loaded.AcceptableBCubed, cfg.AcceptableBCubed)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("SLASH_INDEX_MAX_TRIALS", "42")
	os.Setenv("SLASH_ACCEPTABLE_BCUBED", "0.9")
	os.Setenv("SLASH_DENSITY_SKIP", "true")
	defer os.Unsetenv("SLASH_INDEX_MAX_TRIALS")
	defer os.Unsetenv("SLASH_ACCEPTABLE_BCUBED")
	defer os.Unsetenv("SLASH_DENSITY_SKIP")

	cfg := LoadFromEnv()
	if cfg.Index.Budget.MaxTrials != 42 {
		t.Errorf("MaxTrials = %d, want 42", cfg.Index.Budget.MaxTrials)
	}
	if cfg.AcceptableBCubed != 0.9 {
		t.Errorf("AcceptableBCubed = %f, want 0.9", cfg.AcceptableBCubed)
	}
	if !cfg.DensityClassifier.Skip {
		t.Error("expected DensityClassifier.Skip true")
	}
}
