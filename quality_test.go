package grfnotes

import "testing"

func TestClassifyAsymmetryBands(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{0, "excellent"},
		{4.9, "excellent"},
		{5, "good"},
		{9.9, "good"},
		{10, "fair"},
		{15, "poor"},
		{25, "very poor"},
		{80, "very poor"},
		{-12, "fair"}, // sign carries direction, not magnitude
	}
	for _, c := range cases {
		if got := ClassifyAsymmetry(c.pct); got != c.want {
			t.Fatalf("ClassifyAsymmetry(%v) = %q, want %q", c.pct, got, c.want)
		}
	}
}

func TestClassifyJumpHeight(t *testing.T) {
	cases := []struct {
		meters float64
		want   string
	}{
		{0.10, "low"},
		{0.20, "moderate"},
		{0.30, "good"},
		{0.40, "high"},
		{0.55, "elite"},
	}
	for _, c := range cases {
		if got := ClassifyJumpHeight(c.meters); got != c.want {
			t.Fatalf("ClassifyJumpHeight(%v) = %q, want %q", c.meters, got, c.want)
		}
	}
}

func TestClassifyRelativeForce(t *testing.T) {
	if got := ClassifyRelativeForce(1.2); got != "low" {
		t.Fatalf("got %q", got)
	}
	if got := ClassifyRelativeForce(2.6); got != "high" {
		t.Fatalf("got %q", got)
	}
}

func TestDefaultParametersAreValid(t *testing.T) {
	for _, tt := range []TestType{CountermovementJump, SquatJump, DropJump, IsometricPull, BalanceTest} {
		p := DefaultParameters(tt)
		if err := p.Validate(); err != nil {
			t.Fatalf("%s defaults invalid: %v", tt, err)
		}
	}
}

func TestDefaultParametersCopyIsolated(t *testing.T) {
	p := DefaultParameters(DropJump)
	p.Custom["dropHeight"] = 99
	if DefaultParameters(DropJump).Custom["dropHeight"] == 99 {
		t.Fatal("mutating a returned parameter copy leaked into the defaults table")
	}
}
