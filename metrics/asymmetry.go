package metrics

// Kind names the quantity an asymmetry was computed over.
type Kind int

const (
	ForceAsymmetry Kind = iota
	ImpulseAsymmetry
	TemporalAsymmetry
	SpatialAsymmetry
)

var kindNames = [...]string{
	ForceAsymmetry:    "force",
	ImpulseAsymmetry:  "impulse",
	TemporalAsymmetry: "temporal",
	SpatialAsymmetry:  "spatial",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// AsymmetryResult quantifies left/right imbalance for one quantity.
// Percentage is the unsigned magnitude; AsymmetryIndex carries the sign
// convention: negative = left-dominant, positive = right-dominant.
type AsymmetryResult struct {
	Kind           Kind    `json:"kind"`
	LeftValue      float64 `json:"left_value"`
	RightValue     float64 `json:"right_value"`
	Percentage     float64 `json:"percentage"`
	AsymmetryIndex float64 `json:"asymmetry_index"`
}

// Asymmetry computes the imbalance between a left and right value:
// percentage = |L-R| / (L+R) * 100, index = (R-L) / (L+R) * 100.
// A zero combined value means no load on either side, which is a legitimate
// physical state, so the result is a defined zero rather than an error.
func Asymmetry(kind Kind, left, right float64) AsymmetryResult {
	res := AsymmetryResult{Kind: kind, LeftValue: left, RightValue: right}
	total := left + right
	if total == 0 {
		return res
	}
	res.AsymmetryIndex = (right - left) / total * 100.0
	res.Percentage = res.AsymmetryIndex
	if res.Percentage < 0 {
		res.Percentage = -res.Percentage
	}
	return res
}
