package storage

import (
	"path/filepath"
	"testing"

	grfnotes "grf-analyzer"
	"grf-analyzer/phase"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func captureSamples(n int) []grfnotes.ForceSample {
	out := make([]grfnotes.ForceSample, n)
	for i := range out {
		out[i] = grfnotes.ForceSample{
			TimestampMillis: int64(i),
			LeftForce:       380,
			RightForce:      320,
		}
	}
	copX := 1.5
	copY := -2.0
	out[0].LeftCopX = &copX
	out[0].LeftCopY = &copY
	out[0].RightCopX = &copX
	out[0].RightCopY = &copY
	return out
}

func TestSaveAndReloadSession(t *testing.T) {
	s := openTestStore(t)

	samples := captureSamples(250)
	analysis := &grfnotes.Analysis{
		TestType:         "cmj",
		SampleCount:      len(samples),
		DurationSeconds:  0.25,
		BodyweightN:      700,
		BodyweightSource: "estimated",
		Metrics:          map[string]float64{"peak_total_force_n": 1540, "jump_height_flight_m": 0.31},
		Phases: []phase.Event{
			{SampleIndex: 0, Phase: phase.Standing},
			{SampleIndex: 120, Phase: phase.Unloading},
		},
		Quality:  map[string]string{"jump_height": "good"},
		Warnings: []string{"dropped 1 invalid sample"},
		Notes:    "Session summary.",
	}

	id, err := s.SaveSession(samples, analysis)
	if err != nil {
		t.Fatalf("SaveSession error: %v", err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}

	loaded, err := s.LoadSamples(id)
	if err != nil {
		t.Fatalf("LoadSamples error: %v", err)
	}
	if len(loaded) != len(samples) {
		t.Fatalf("loaded %d samples, want %d", len(loaded), len(samples))
	}
	if loaded[10].LeftForce != 380 || loaded[10].RightForce != 320 {
		t.Fatalf("sample 10 = %+v", loaded[10])
	}
	if !loaded[0].HasCop() {
		t.Fatal("sample 0 lost its center-of-pressure channels")
	}
	if loaded[1].HasCop() {
		t.Fatal("sample 1 grew center-of-pressure channels")
	}

	m, err := s.LoadMetrics(id)
	if err != nil {
		t.Fatalf("LoadMetrics error: %v", err)
	}
	if m["jump_height_flight_m"] != 0.31 {
		t.Fatalf("metrics = %v", m)
	}

	events, err := s.LoadPhases(id)
	if err != nil {
		t.Fatalf("LoadPhases error: %v", err)
	}
	if len(events) != 2 || events[1].Phase != phase.Unloading || events[1].SampleIndex != 120 {
		t.Fatalf("phases = %v", events)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	for _, tt := range []string{"cmj", "balance"} {
		_, err := s.SaveSession(captureSamples(10), &grfnotes.Analysis{
			TestType: tt, SampleCount: 10, BodyweightSource: "input", BodyweightN: 650,
		})
		if err != nil {
			t.Fatalf("SaveSession(%s) error: %v", tt, err)
		}
	}

	sessions, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	for _, sum := range sessions {
		if sum.SampleCount != 10 || sum.BodyweightN != 650 {
			t.Fatalf("summary = %+v", sum)
		}
	}
}

func TestLoadSamplesUnknownSession(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadSamples("no-such-id"); err == nil {
		t.Fatal("expected error for unknown session")
	}
}
