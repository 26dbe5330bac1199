package pipeline

// Options configures the grf_analyze pipeline.
type Options struct {
	InputPath   string // CSV or JSONL session capture
	OutDir      string
	TestType    string // cmj|squat_jump|drop_jump|isometric_pull|balance
	BodyweightN float64
	Format      string // parquet|csv
	Overwrite   bool
}

// Result returns generated output paths.
type Result struct {
	OutputDir              string   `json:"output_dir"`
	ManifestPath           string   `json:"manifest_path"`
	MetricsPath            string   `json:"metrics_path"`
	PhasesPath             string   `json:"phases_path"`
	SummaryPath            string   `json:"summary_path"`
	NotesPath              string   `json:"notes_path"`
	ConditionedSamplesPath string   `json:"conditioned_samples_path"`
	Warnings               []string `json:"warnings,omitempty"`
}

// ConditionedSample is one row of the conditioned-signal artifact, aligned
// with the kept input samples and labeled with the phase it falls in.
type ConditionedSample struct {
	Index        int64   `json:"index"`
	ElapsedS     float64 `json:"elapsed_s"`
	RawN         float64 `json:"raw_n"`
	ConditionedN float64 `json:"conditioned_n"`
	LeftN        float64 `json:"left_n"`
	RightN       float64 `json:"right_n"`
	Phase        string  `json:"phase"`
}

// Manifest describes one exported session bundle.
type Manifest struct {
	SchemaVersion string   `json:"schema_version"`
	SourcePath    string   `json:"source_path"`
	TestType      string   `json:"test_type"`
	SampleCount   int      `json:"sample_count"`
	MetricCount   int      `json:"metric_count"`
	PhaseCount    int      `json:"phase_count"`
	Files         []string `json:"files"`
	Warnings      []string `json:"warnings,omitempty"`
}
