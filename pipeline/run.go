package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	grfnotes "grf-analyzer"
)

const manifestSchemaVersion = "1.0"

// Run executes the full grf_analyze pipeline and writes all session artifacts.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.InputPath) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}

	testType, err := grfnotes.ParseTestType(opts.TestType)
	if err != nil {
		return nil, err
	}

	if err := PrepareOutDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	samples, err := LoadSamples(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("load session capture: %w", err)
	}

	analysis, err := grfnotes.Analyze(samples, grfnotes.Config{
		TestType:    testType,
		BodyweightN: opts.BodyweightN,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze session: %w", err)
	}

	res, err := WriteBundle(opts.OutDir, opts.InputPath, format, samples, analysis)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// WriteBundle writes the artifact files for one analyzed session into an
// existing directory. The offline pipeline and the live daemon both end
// here, so a replayed capture produces the same bundle shape as a live one.
func WriteBundle(outDir, sourcePath, format string, samples []grfnotes.ForceSample, analysis *grfnotes.Analysis) (*Result, error) {
	metricsPath := filepath.Join(outDir, "metrics.json")
	if err := writeJSON(metricsPath, analysis.Metrics); err != nil {
		return nil, fmt.Errorf("write metrics.json: %w", err)
	}

	phasesPath := filepath.Join(outDir, "phases.json")
	if err := writeJSON(phasesPath, analysis.Phases); err != nil {
		return nil, fmt.Errorf("write phases.json: %w", err)
	}

	summaryPath := filepath.Join(outDir, "session_summary.json")
	if err := writeJSON(summaryPath, analysis); err != nil {
		return nil, fmt.Errorf("write session_summary.json: %w", err)
	}

	notesPath := filepath.Join(outDir, "notes.md")
	if err := os.WriteFile(notesPath, []byte(analysis.Notes), 0o644); err != nil {
		return nil, fmt.Errorf("write notes.md: %w", err)
	}

	rows := buildConditionedRows(samples, analysis)
	conditionedPath := filepath.Join(outDir, "conditioned_samples."+formatExtension(format))
	switch format {
	case "csv":
		if err := writeConditionedCSV(conditionedPath, rows); err != nil {
			return nil, fmt.Errorf("write conditioned csv: %w", err)
		}
	case "parquet":
		if err := writeConditionedParquet(conditionedPath, rows); err != nil {
			return nil, fmt.Errorf("write conditioned parquet: %w", err)
		}
	}

	manifest := Manifest{
		SchemaVersion: manifestSchemaVersion,
		SourcePath:    sourcePath,
		TestType:      analysis.TestType,
		SampleCount:   analysis.SampleCount,
		MetricCount:   len(analysis.Metrics),
		PhaseCount:    len(analysis.Phases),
		Files: []string{
			"metrics.json",
			"phases.json",
			"session_summary.json",
			"notes.md",
			filepath.Base(conditionedPath),
		},
		Warnings: analysis.Warnings,
	}
	manifestPath := filepath.Join(outDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}

	return &Result{
		OutputDir:              outDir,
		ManifestPath:           manifestPath,
		MetricsPath:            metricsPath,
		PhasesPath:             phasesPath,
		SummaryPath:            summaryPath,
		NotesPath:              notesPath,
		ConditionedSamplesPath: conditionedPath,
		Warnings:               analysis.Warnings,
	}, nil
}

// PrepareOutDir creates dir, refusing to reuse a non-empty one unless
// overwrite is set.
func PrepareOutDir(dir string, overwrite bool) error {
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output path %s exists and is not a directory", dir)
		}
		if !overwrite {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				return fmt.Errorf("output directory %s is not empty (use overwrite)", dir)
			}
		}
	}
	return os.MkdirAll(dir, 0o755)
}

// buildConditionedRows pairs the conditioned signal with the raw samples it
// was derived from. The analyzer drops non-finite samples and timestamp
// regressions before conditioning, so the same filter is applied here to
// keep the rows aligned.
func buildConditionedRows(samples []grfnotes.ForceSample, analysis *grfnotes.Analysis) []ConditionedSample {
	kept := keepValidSamples(samples)
	n := len(analysis.Conditioned)
	if len(kept) < n {
		n = len(kept)
	}
	if n == 0 {
		return nil
	}

	labels := phaseLabels(analysis, n)
	rate := analysis.Parameters.SamplingRateHz

	rows := make([]ConditionedSample, 0, n)
	for i := 0; i < n; i++ {
		s := kept[i]
		rows = append(rows, ConditionedSample{
			Index:        int64(i),
			ElapsedS:     float64(i) / rate,
			RawN:         s.TotalForce(),
			ConditionedN: analysis.Conditioned[i],
			LeftN:        s.LeftForce,
			RightN:       s.RightForce,
			Phase:        labels[i],
		})
	}
	return rows
}

func keepValidSamples(samples []grfnotes.ForceSample) []grfnotes.ForceSample {
	kept := make([]grfnotes.ForceSample, 0, len(samples))
	var lastTS int64
	haveTS := false
	for _, s := range samples {
		if math.IsNaN(s.LeftForce) || math.IsInf(s.LeftForce, 0) ||
			math.IsNaN(s.RightForce) || math.IsInf(s.RightForce, 0) {
			continue
		}
		if haveTS && s.TimestampMillis <= lastTS {
			continue
		}
		lastTS = s.TimestampMillis
		haveTS = true
		kept = append(kept, s)
	}
	return kept
}

func phaseLabels(analysis *grfnotes.Analysis, n int) []string {
	labels := make([]string, n)
	for i, ev := range analysis.Phases {
		end := n
		if i+1 < len(analysis.Phases) {
			end = analysis.Phases[i+1].SampleIndex
		}
		start := ev.SampleIndex
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		for j := start; j < end; j++ {
			labels[j] = ev.Phase.String()
		}
	}
	return labels
}

func formatExtension(format string) string {
	if format == "csv" {
		return "csv"
	}
	return "parquet"
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeConditionedCSV(path string, rows []ConditionedSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"index", "elapsed_s", "raw_n", "conditioned_n", "left_n", "right_n", "phase"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			strconv.FormatInt(r.Index, 10),
			formatFloat(r.ElapsedS),
			formatFloat(r.RawN),
			formatFloat(r.ConditionedN),
			formatFloat(r.LeftN),
			formatFloat(r.RightN),
			r.Phase,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
