package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	grfnotes "grf-analyzer"
)

// LoadSamples reads a session capture from disk. The format is chosen by
// extension: .csv expects a header row, anything else is treated as JSONL
// with one ForceSample object per line.
func LoadSamples(path string) ([]grfnotes.ForceSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readSamplesCSV(f)
	}
	return readSamplesJSONL(f)
}

func readSamplesJSONL(r io.Reader) ([]grfnotes.ForceSample, error) {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*1024)
	sc.Buffer(buf, 16*1024*1024)

	samples := make([]grfnotes.ForceSample, 0, 4096)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var s grfnotes.ForceSample
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("unmarshal jsonl line %d: %w", len(samples)+1, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func readSamplesCSV(r io.Reader) ([]grfnotes.ForceSample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"ts_ms", "left_n", "right_n"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", required)
		}
	}

	samples := make([]grfnotes.ForceSample, 0, 4096)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(samples)+2, err)
		}

		ts, err := strconv.ParseInt(cell(row, col, "ts_ms"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: bad ts_ms: %w", len(samples)+2, err)
		}
		left, err := strconv.ParseFloat(cell(row, col, "left_n"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: bad left_n: %w", len(samples)+2, err)
		}
		right, err := strconv.ParseFloat(cell(row, col, "right_n"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: bad right_n: %w", len(samples)+2, err)
		}

		s := grfnotes.ForceSample{TimestampMillis: ts, LeftForce: left, RightForce: right}
		s.LeftCopX = parseOptional(cell(row, col, "left_cop_x_mm"))
		s.LeftCopY = parseOptional(cell(row, col, "left_cop_y_mm"))
		s.RightCopX = parseOptional(cell(row, col, "right_cop_x_mm"))
		s.RightCopY = parseOptional(cell(row, col, "right_cop_y_mm"))
		samples = append(samples, s)
	}
	return samples, nil
}

func cell(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseOptional(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
