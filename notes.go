package grfnotes

import (
	"fmt"
	"strings"

	"grf-analyzer/metrics"
)

// BuildSessionNotes turns a completed analysis into an operator-readable
// summary.
func BuildSessionNotes(a *Analysis) string {
	if a == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Test: %s | %d samples over %.2f s\n", a.TestType, a.SampleCount, a.DurationSeconds)
	if a.BodyweightN > 0 {
		fmt.Fprintf(&b, "Bodyweight %.0f N (%s)\n", a.BodyweightN, a.BodyweightSource)
	} else {
		b.WriteString("Bodyweight unavailable\n")
	}

	if h, ok := a.Metrics[metrics.MetricJumpHeightFlightM]; ok {
		fmt.Fprintf(&b, "Jump height %.1f cm (flight time)", h*100)
		if hi, ok := a.Metrics[metrics.MetricJumpHeightImpulseM]; ok {
			fmt.Fprintf(&b, " / %.1f cm (impulse)", hi*100)
		}
		if ft, ok := a.Metrics[metrics.MetricFlightTimeMs]; ok {
			fmt.Fprintf(&b, " | Flight %.0f ms", ft)
		}
		b.WriteString("\n")
	}
	if ct, ok := a.Metrics[metrics.MetricContactTimeMs]; ok {
		fmt.Fprintf(&b, "Contact %.0f ms", ct)
		if rsi, ok := a.Metrics[metrics.MetricReactiveStrength]; ok {
			fmt.Fprintf(&b, " | RSI %.2f", rsi)
		}
		b.WriteString("\n")
	}

	if peak, ok := a.Metrics[metrics.MetricPeakTotalForceN]; ok {
		fmt.Fprintf(&b, "Peak force %.0f N", peak)
		if pp, ok := a.Metrics[metrics.MetricPeakPropulsionForceN]; ok {
			fmt.Fprintf(&b, " | Propulsion %.0f N peak", pp)
		}
		if pl, ok := a.Metrics[metrics.MetricPeakLandingForceN]; ok {
			fmt.Fprintf(&b, " | Landing %.0f N peak", pl)
		}
		b.WriteString("\n")
	}
	if rfd, ok := a.Metrics[metrics.MetricRFDBrakingNPerS]; ok {
		fmt.Fprintf(&b, "Braking RFD %.0f N/s\n", rfd)
	}
	if rfd, ok := a.Metrics[metrics.MetricRFDNPerS]; ok {
		fmt.Fprintf(&b, "RFD %.0f N/s\n", rfd)
	}
	if imp, ok := a.Metrics[metrics.MetricPropulsionImpulseNs]; ok {
		fmt.Fprintf(&b, "Propulsion impulse %.1f N·s\n", imp)
	}
	if sway, ok := a.Metrics[metrics.MetricCopPathLengthMm]; ok {
		fmt.Fprintf(&b, "COP path %.0f mm\n", sway)
	}

	if idx, ok := a.Metrics[metrics.MetricForceAsymIndex]; ok {
		side := "right-dominant"
		if idx < 0 {
			side = "left-dominant"
		} else if idx == 0 {
			side = "balanced"
		}
		fmt.Fprintf(&b, "Force asymmetry %+.1f%% (%s)", idx, side)
		if label, ok := a.Quality[metrics.MetricForceAsymPct]; ok {
			fmt.Fprintf(&b, " (%s)", label)
		}
		b.WriteString("\n")
	}

	if label, ok := a.Quality[metrics.MetricJumpHeightFlightM]; ok {
		fmt.Fprintf(&b, "Jump height rating: %s\n", label)
	}
	if label, ok := a.Quality[metrics.MetricPeakTotalForceN]; ok {
		fmt.Fprintf(&b, "Relative force rating: %s\n", label)
	}

	if len(a.Phases) > 0 {
		names := make([]string, 0, len(a.Phases))
		for _, ev := range a.Phases {
			names = append(names, ev.Phase.String())
		}
		fmt.Fprintf(&b, "Phases: %s\n", strings.Join(names, " -> "))
	}
	for _, w := range a.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}

	return b.String()
}
