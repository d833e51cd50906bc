package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all pipeline configuration (spec §6).
type Config struct {
	Data              DataConfig              `yaml:"data"`
	Output            OutputConfig            `yaml:"output"`
	Index             IndexConfig             `yaml:"index"`
	HilbertClassifier HilbertClassifierConfig `yaml:"hilbert_classifier"`
	DensityClassifier DensityClassifierConfig `yaml:"density_classifier"`
	AcceptableBCubed  float64                 `yaml:"acceptable_bcubed"`
	Serve             ServeConfig             `yaml:"serve"`
}

// ServeConfig configures the optional health/metrics service surface
// (SPEC_FULL §2.6); it has no analogue in spec §6's core configuration
// table because that table only covers the clustering pipeline itself.
type ServeConfig struct {
	GRPCAddress    string  `yaml:"grpc_address"`
	RESTAddress    string  `yaml:"rest_address"`
	JWTSecret      string  `yaml:"jwt_secret"`
	AuthEnabled    bool    `yaml:"auth_enabled"`
	RateLimitQPS   float64 `yaml:"rate_limit_qps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// DataConfig describes how input points are read.
type DataConfig struct {
	ReadHeader    bool     `yaml:"read_header"`
	IDField       string   `yaml:"id_field"`
	CategoryField string   `yaml:"category_field"`
	InputDataFile DataSink `yaml:"input_data_file"`
}

// OutputConfig describes how the labeled output is written.
type OutputConfig struct {
	OutputDataFile DataSink `yaml:"output_data_file"`
	WriteHeader    bool     `yaml:"write_header"`
	IDField        string   `yaml:"id_field"`
	CategoryField  string   `yaml:"category_field"`
	LogFile        string   `yaml:"log_file"`
	LogLevel       string   `yaml:"log_level"`
}

// IndexConfig configures OptimalIndex (C5).
type IndexConfig struct {
	BitsPerDimension int         `yaml:"bits_per_dimension"`
	Budget           IndexBudget `yaml:"budget"`
}

// IndexBudget is the OptimalIndex search budget.
type IndexBudget struct {
	IndexCount                      int  `yaml:"index_count"`
	MaxTrials                       int  `yaml:"max_trials"`
	MaxIterationsWithoutImprovement int  `yaml:"max_iterations_without_improvement"`
	OutlierSize                     int  `yaml:"outlier_size"`
	UseSample                       bool `yaml:"use_sample"`
}

// HilbertClassifierConfig configures SingleLinkMerger (C7).
type HilbertClassifierConfig struct {
	MaxNeighborsToCompare     int     `yaml:"max_neighbors_to_compare"`
	UseExactClusterDistance   bool    `yaml:"use_exact_cluster_distance"`
	OutlierDistanceMultiplier float64 `yaml:"outlier_distance_multiplier"`
}

// DensityClassifierConfig configures DensityMeter/DensitySplitter (C8).
type DensityClassifierConfig struct {
	Skip                         bool    `yaml:"skip"`
	UnmergeableSizeFraction      float64 `yaml:"unmergeable_size_fraction"`
	NeighborhoodRadiusMultiplier float64 `yaml:"neighborhood_radius_multiplier"`
	OutlierSize                  int     `yaml:"outlier_size"`
	MergeableShrinkage           float64 `yaml:"mergeable_shrinkage"`
}

// DataSinkKind tags the variant held by a DataSink (spec §9's
// "Enum-tagged configuration options" redesign note).
type DataSinkKind int

const (
	// SinkFile reads/writes a named path on disk.
	SinkFile DataSinkKind = iota
	// SinkStdIn reads from the process's standard input ("-" on read).
	SinkStdIn
	// SinkStdOut writes to the process's standard output ("-" on write).
	SinkStdOut
	// SinkSuppress means "?" — no input/output is performed.
	SinkSuppress
)

// DataSink is a tagged-variant replacement for the "?"/"-" sentinel
// strings the original configuration used for input/output paths.
type DataSink struct {
	Kind DataSinkKind
	Path string // only meaningful when Kind == SinkFile
}

// ParseDataSink interprets a configuration string: "-" means stdin/stdout
// (resolved by context), "?" means suppress, anything else is a file path.
func ParseDataSink(s string) DataSink {
	switch s {
	case "-":
		return DataSink{Kind: SinkStdIn}
	case "?":
		return DataSink{Kind: SinkSuppress}
	default:
		return DataSink{Kind: SinkFile, Path: s}
	}
}

// String renders the sink back to its configuration-file form.
func (d DataSink) String() string {
	switch d.Kind {
	case SinkStdIn, SinkStdOut:
		return "-"
	case SinkSuppress:
		return "?"
	default:
		return d.Path
	}
}

// UnmarshalYAML implements the sentinel-string contract for YAML decoding.
func (d *DataSink) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*d = ParseDataSink(s)
	return nil
}

// MarshalYAML implements the sentinel-string contract for YAML encoding.
func (d DataSink) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Default returns the default pipeline configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			ReadHeader:    true,
			IDField:       "id",
			CategoryField: "category",
			InputDataFile: DataSink{Kind: SinkStdIn},
		},
		Output: OutputConfig{
			OutputDataFile: DataSink{Kind: SinkStdOut},
			WriteHeader:    true,
			IDField:        "id",
			CategoryField:  "label",
			LogFile:        "",
			LogLevel:       "info",
		},
		Index: IndexConfig{
			BitsPerDimension: 0,
			Budget: IndexBudget{
				IndexCount:                      1,
				MaxTrials:                       20,
				MaxIterationsWithoutImprovement: 5,
				OutlierSize:                     5,
				UseSample:                       false,
			},
		},
		HilbertClassifier: HilbertClassifierConfig{
			MaxNeighborsToCompare:     5,
			UseExactClusterDistance:   false,
			OutlierDistanceMultiplier: 5,
		},
		DensityClassifier: DensityClassifierConfig{
			Skip:                         false,
			UnmergeableSizeFraction:      0.1,
			NeighborhoodRadiusMultiplier: 1.0,
			OutlierSize:                  5,
			MergeableShrinkage:           0.5,
		},
		AcceptableBCubed: 0.98,
		Serve: ServeConfig{
			GRPCAddress:    "0.0.0.0:50151",
			RESTAddress:    "0.0.0.0:8151",
			AuthEnabled:    false,
			RateLimitQPS:   10,
			RateLimitBurst: 20,
		},
	}
}

// LoadFromEnv loads configuration from SLASH_* environment variables,
// starting from Default().
func LoadFromEnv() *Config {
	cfg := Default()

	if v := os.Getenv("SLASH_DATA_READ_HEADER"); v == "false" {
		cfg.Data.ReadHeader = false
	}
	if v := os.Getenv("SLASH_DATA_ID_FIELD"); v != "" {
		cfg.Data.IDField = v
	}
	if v := os.Getenv("SLASH_DATA_CATEGORY_FIELD"); v != "" {
		cfg.Data.CategoryField = v
	}
	if v := os.Getenv("SLASH_DATA_INPUT_FILE"); v != "" {
		cfg.Data.InputDataFile = ParseDataSink(v)
	}

	if v := os.Getenv("SLASH_OUTPUT_FILE"); v != "" {
		cfg.Output.OutputDataFile = ParseDataSink(v)
	}
	if v := os.Getenv("SLASH_OUTPUT_WRITE_HEADER"); v == "false" {
		cfg.Output.WriteHeader = false
	}
	if v := os.Getenv("SLASH_OUTPUT_LOG_LEVEL"); v != "" {
		cfg.Output.LogLevel = v
	}
	if v := os.Getenv("SLASH_OUTPUT_LOG_FILE"); v != "" {
		cfg.Output.LogFile = v
	}

	if v := os.Getenv("SLASH_INDEX_BITS_PER_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.BitsPerDimension = n
		}
	}
	if v := os.Getenv("SLASH_INDEX_MAX_TRIALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.Budget.MaxTrials = n
		}
	}
	if v := os.Getenv("SLASH_INDEX_MAX_ITERATIONS_WITHOUT_IMPROVEMENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.Budget.MaxIterationsWithoutImprovement = n
		}
	}
	if v := os.Getenv("SLASH_INDEX_OUTLIER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.Budget.OutlierSize = n
		}
	}
	if v := os.Getenv("SLASH_INDEX_USE_SAMPLE"); v == "true" {
		cfg.Index.Budget.UseSample = true
	}

	if v := os.Getenv("SLASH_HILBERT_MAX_NEIGHBORS_TO_COMPARE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HilbertClassifier.MaxNeighborsToCompare = n
		}
	}
	if v := os.Getenv("SLASH_HILBERT_USE_EXACT_CLUSTER_DISTANCE"); v == "true" {
		cfg.HilbertClassifier.UseExactClusterDistance = true
	}
	if v := os.Getenv("SLASH_HILBERT_OUTLIER_DISTANCE_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HilbertClassifier.OutlierDistanceMultiplier = f
		}
	}

	if v := os.Getenv("SLASH_DENSITY_SKIP"); v == "true" {
		cfg.DensityClassifier.Skip = true
	}
	if v := os.Getenv("SLASH_DENSITY_UNMERGEABLE_SIZE_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DensityClassifier.UnmergeableSizeFraction = f
		}
	}
	if v := os.Getenv("SLASH_DENSITY_NEIGHBORHOOD_RADIUS_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DensityClassifier.NeighborhoodRadiusMultiplier = f
		}
	}
	if v := os.Getenv("SLASH_DENSITY_OUTLIER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DensityClassifier.OutlierSize = n
		}
	}
	if v := os.Getenv("SLASH_DENSITY_MERGEABLE_SHRINKAGE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DensityClassifier.MergeableShrinkage = f
		}
	}

	if v := os.Getenv("SLASH_ACCEPTABLE_BCUBED"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AcceptableBCubed = f
		}
	}

	return cfg
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that the configuration is internally consistent,
// failing before any computation begins (spec §7's "configuration error"
// taxonomy entry).
func (c *Config) Validate() error {
	if c.Index.BitsPerDimension < 0 {
		return fmt.Errorf("config: index.bits_per_dimension must be >= 0 (0 means auto), got %d", c.Index.BitsPerDimension)
	}
	if c.Index.Budget.MaxTrials < 1 {
		return fmt.Errorf("config: index.budget.max_trials must be > 0, got %d", c.Index.Budget.MaxTrials)
	}
	if c.Index.Budget.MaxIterationsWithoutImprovement < 1 {
		return fmt.Errorf("config: index.budget.max_iterations_without_improvement must be > 0, got %d", c.Index.Budget.MaxIterationsWithoutImprovement)
	}
	if c.Index.Budget.OutlierSize < 1 {
		return fmt.Errorf("config: index.budget.outlier_size must be > 0, got %d", c.Index.Budget.OutlierSize)
	}

	if c.HilbertClassifier.MaxNeighborsToCompare < 1 {
		return fmt.Errorf("config: hilbert_classifier.max_neighbors_to_compare must be > 0, got %d", c.HilbertClassifier.MaxNeighborsToCompare)
	}
	if c.HilbertClassifier.OutlierDistanceMultiplier <= 0 {
		return fmt.Errorf("config: hilbert_classifier.outlier_distance_multiplier must be > 0, got %f", c.HilbertClassifier.OutlierDistanceMultiplier)
	}

	if c.DensityClassifier.UnmergeableSizeFraction < 0 || c.DensityClassifier.UnmergeableSizeFraction > 1 {
		return fmt.Errorf("config: density_classifier.unmergeable_size_fraction must be in [0,1], got %f", c.DensityClassifier.UnmergeableSizeFraction)
	}
	if c.DensityClassifier.NeighborhoodRadiusMultiplier <= 0 {
		return fmt.Errorf("config: density_classifier.neighborhood_radius_multiplier must be > 0, got %f", c.DensityClassifier.NeighborhoodRadiusMultiplier)
	}
	if c.DensityClassifier.OutlierSize < 1 {
		return fmt.Errorf("config: density_classifier.outlier_size must be > 0, got %d", c.DensityClassifier.OutlierSize)
	}
	if c.DensityClassifier.MergeableShrinkage <= 0 || c.DensityClassifier.MergeableShrinkage > 1 {
		return fmt.Errorf("config: density_classifier.mergeable_shrinkage must be in (0,1], got %f", c.DensityClassifier.MergeableShrinkage)
	}

	if c.AcceptableBCubed < 0 || c.AcceptableBCubed > 1 {
		return fmt.Errorf("config: acceptable_bcubed must be in [0,1], got %f", c.AcceptableBCubed)
	}

	if c.Output.LogLevel != "" && !validLogLevels[c.Output.LogLevel] {
		return fmt.Errorf("config: output.log_level must be one of debug,info,warn,error, got %q", c.Output.LogLevel)
	}

	return nil
}
