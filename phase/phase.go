// Package phase segments a bodyweight-normalized force trace into movement
// phases. The segmenter is a per-session state machine: one instance covers
// one discrete movement and is discarded afterwards. Live ingestion and
// stored-session replay both feed the same Push path, so there is no
// live/replay special-casing anywhere downstream.
package phase

import "fmt"

// Phase labels one contiguous interval of the test time series.
type Phase int

const (
	Standing Phase = iota
	Unloading
	Braking
	Propulsion
	Flight
	Landing
	Recovery
)

var phaseNames = [...]string{
	Standing:   "standing",
	Unloading:  "unloading",
	Braking:    "braking",
	Propulsion: "propulsion",
	Flight:     "flight",
	Landing:    "landing",
	Recovery:   "recovery",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// ParsePhase is the inverse of String. Stored sessions persist phases by
// name rather than ordinal so the enum can be reordered safely.
func ParsePhase(name string) (Phase, error) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// Event marks the first sample of a phase. Events are emitted in
// non-decreasing SampleIndex order and partition the trace into contiguous
// intervals.
type Event struct {
	SampleIndex int   `json:"sample_index"`
	Phase       Phase `json:"phase"`
}

// Params holds the thresholds and debounce windows for one test protocol.
// Different test types and body sizes need different tolerances, so none of
// these are hard-coded in the machine.
type Params struct {
	// UnloadingBand: standing ends when the force ratio drops below
	// 1 - UnloadingBand.
	UnloadingBand float64
	// TakeoffThreshold: ratio below which the athlete is considered airborne.
	TakeoffThreshold float64
	// LandingThreshold: ratio above which ground contact has resumed.
	LandingThreshold float64
	// StableBand: |ratio - 1| within this band counts as quiet standing.
	StableBand float64
	// MinStandingSamples of stability required before an unloading drop is
	// trusted, guarding against noise-triggered false starts.
	MinStandingSamples int
	// MinStableSamples inside StableBand required to close a landing into
	// recovery.
	MinStableSamples int
	// DebounceSamples a threshold crossing must hold before takeoff or
	// landing is accepted, rejecting single-sample dropouts.
	DebounceSamples int
	// MinSamples below which segmentation is refused outright.
	MinSamples int
}

// Segmenter consumes one force sample per call to Push and records phase
// transitions. All state is private to the instance; running two sessions
// concurrently means two segmenters.
type Segmenter struct {
	params     Params
	bodyweight float64

	state  Phase
	events []Event
	idx    int

	stableRun  int
	belowRun   int
	aboveRun   int
	declineRun int

	peakForce float64
	prevRatio float64
	havePrev  bool
}

// NewSegmenter returns a segmenter for one session. bodyweight is the
// athlete's quiet-standing force in Newtons; a non-positive bodyweight makes
// every ratio undefined and the segmenter emits nothing.
func NewSegmenter(bodyweight float64, params Params) *Segmenter {
	return &Segmenter{
		params:     params,
		bodyweight: bodyweight,
		state:      Standing,
	}
}

// Push advances the machine by one sample. Samples must arrive in capture
// order.
func (s *Segmenter) Push(force float64) {
	if s.bodyweight <= 0 {
		s.idx++
		return
	}
	if s.idx == 0 {
		s.events = append(s.events, Event{SampleIndex: 0, Phase: Standing})
	}

	r := force / s.bodyweight
	p := s.params

	switch s.state {
	case Standing:
		if s.stableRun >= p.MinStandingSamples && r < 1-p.UnloadingBand {
			s.transition(Unloading, s.idx)
			break
		}
		// Brief wobbles outside the band pause the stability count without
		// resetting it.
		if abs(r-1) <= p.StableBand {
			s.stableRun++
		}

	case Unloading:
		if r >= 1 && s.havePrev && r > s.prevRatio {
			s.transition(Braking, s.idx)
			s.peakForce = force
			s.declineRun = 0
		}

	case Braking:
		// Propulsion begins once the braking peak has passed and the force
		// shows a sustained decrease. A recovery back to the peak resets the
		// decline count, so a single-sample dropout cannot fake the
		// transition.
		if force >= s.peakForce {
			s.peakForce = force
			s.declineRun = 0
		} else {
			s.declineRun++
		}
		if s.declineRun >= p.DebounceSamples {
			s.transition(Propulsion, s.idx-s.declineRun+1)
			s.belowRun = 0
		}

	case Propulsion:
		if r < p.TakeoffThreshold {
			s.belowRun++
		} else {
			s.belowRun = 0
		}
		if s.belowRun >= p.DebounceSamples {
			s.transition(Flight, s.idx-s.belowRun+1)
			s.aboveRun = 0
		}

	case Flight:
		if r > p.LandingThreshold {
			s.aboveRun++
		} else {
			s.aboveRun = 0
		}
		if s.aboveRun >= p.DebounceSamples {
			s.transition(Landing, s.idx-s.aboveRun+1)
			s.stableRun = 0
		}

	case Landing:
		if abs(r-1) <= p.StableBand {
			s.stableRun++
		} else {
			s.stableRun = 0
		}
		if s.stableRun >= p.MinStableSamples {
			s.transition(Recovery, s.idx-s.stableRun+1)
		}

	case Recovery:
		// Terminal. Re-entry into a second movement is a new session.
	}

	s.prevRatio = r
	s.havePrev = true
	s.idx++
}

// Finish ends the session and returns the recorded events. A capture shorter
// than MinSamples yields nil: the caller must treat the session as invalid
// rather than compute metrics from a fragment. A capture that never settled
// after landing simply ends without a Recovery event; metrics requiring
// recovery are then unavailable downstream, which is the intended
// truncated-capture behavior.
func (s *Segmenter) Finish() []Event {
	if s.idx < s.params.MinSamples {
		return nil
	}
	return s.events
}

// Segment runs a whole trace through a fresh segmenter. This is the batch
// entry point used by replay and tests; it shares the exact Push path the
// live feed uses.
func Segment(forces []float64, bodyweight float64, params Params) []Event {
	seg := NewSegmenter(bodyweight, params)
	for _, f := range forces {
		seg.Push(f)
	}
	return seg.Finish()
}

// Intervals converts an event list into [start, end) sample ranges, one per
// event, with the final interval closed by total. Lookup of a specific phase
// goes through Interval.
func Intervals(events []Event, total int) map[Phase][2]int {
	out := make(map[Phase][2]int, len(events))
	for i, ev := range events {
		end := total
		if i+1 < len(events) {
			end = events[i+1].SampleIndex
		}
		if _, seen := out[ev.Phase]; !seen {
			out[ev.Phase] = [2]int{ev.SampleIndex, end}
		}
	}
	return out
}

// transition records an event, clamping the index so the sequence stays
// non-decreasing even when debounce back-dating points before the previous
// event.
func (s *Segmenter) transition(to Phase, at int) {
	if n := len(s.events); n > 0 && at < s.events[n-1].SampleIndex {
		at = s.events[n-1].SampleIndex
	}
	if at < 0 {
		at = 0
	}
	s.events = append(s.events, Event{SampleIndex: at, Phase: to})
	s.state = to
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
