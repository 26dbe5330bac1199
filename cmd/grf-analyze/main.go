package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grf-analyzer/pipeline"
)

func main() {
	var (
		inputPath  = flag.String("in", "", "Path to session capture (.csv or .jsonl)")
		outDir     = flag.String("out", "", "Output directory")
		testType   = flag.String("test", "cmj", "Test type: cmj|squat_jump|drop_jump|isometric_pull|balance")
		bodyweight = flag.Float64("bodyweight", 0, "Bodyweight in newtons (0 estimates it from the quiet-standing window)")
		format     = flag.String("format", "parquet", "Conditioned sample format: parquet|csv")
		overwrite  = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --in session.csv --out outdir [--test cmj] [--bodyweight 700] [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*inputPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	result, err := pipeline.Run(pipeline.Options{
		InputPath:   *inputPath,
		OutDir:      *outDir,
		TestType:    *testType,
		BodyweightN: *bodyweight,
		Format:      *format,
		Overwrite:   *overwrite,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "grf-analyze failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("grf-analyze complete\n")
	fmt.Printf("Output dir:          %s\n", result.OutputDir)
	fmt.Printf("manifest.json:       %s\n", result.ManifestPath)
	fmt.Printf("metrics.json:        %s\n", result.MetricsPath)
	fmt.Printf("phases.json:         %s\n", result.PhasesPath)
	fmt.Printf("session summary:     %s\n", result.SummaryPath)
	fmt.Printf("notes:               %s\n", result.NotesPath)
	fmt.Printf("conditioned samples: %s\n", result.ConditionedSamplesPath)
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}
