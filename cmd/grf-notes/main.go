package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	grfnotes "grf-analyzer"
	"grf-analyzer/pipeline"
)

func main() {
	var (
		testType   = flag.String("test", "cmj", "Test type: cmj|squat_jump|drop_jump|isometric_pull|balance")
		bodyweight = flag.Float64("bodyweight", 0, "Bodyweight in newtons (0 estimates it from the quiet-standing window)")
		jsonOut    = flag.Bool("json", false, "Emit full analysis as JSON")
		showPhases = flag.Bool("phases", false, "Include phase boundaries in text output")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-capture>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	tt, err := grfnotes.ParseTestType(*testType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	samples, err := pipeline.LoadSamples(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load capture failed: %v\n", err)
		os.Exit(1)
	}

	analysis, err := grfnotes.Analyze(samples, grfnotes.Config{TestType: tt, BodyweightN: *bodyweight})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analysis); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(analysis.Notes)
	if *showPhases && len(analysis.Phases) > 0 {
		fmt.Println()
		fmt.Println("Phase Boundaries")
		rate := analysis.Parameters.SamplingRateHz
		for _, ev := range analysis.Phases {
			fmt.Printf("- %-10s | sample %6d | %8.3fs\n",
				ev.Phase, ev.SampleIndex, float64(ev.SampleIndex)/rate)
		}
	}
}
