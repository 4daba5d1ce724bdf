package wmo

// Squall is the ww and wawa code for squalls.
const Squall Code = 18

// SquallThresholds configures the squall test. The defaults follow the
// guidance for automated stations: a mean wind of at least 10.5 m/s with
// gusts at least 8.0 m/s above it.
type SquallThresholds struct {
	MinSpeed        float64 `mapstructure:"min-speed"`
	MinGustIncrease float64 `mapstructure:"min-gust-increase"`
}

// DefaultSquallThresholds returns the standard thresholds in m/s.
func DefaultSquallThresholds() SquallThresholds {
	return SquallThresholds{MinSpeed: 10.5, MinGustIncrease: 8.0}
}

// IsSquall reports whether sustained wind and gust speed (m/s) meet the
// squall thresholds.
func (t SquallThresholds) IsSquall(sustained, gust float64) bool {
	if t.MinSpeed <= 0 {
		return false
	}
	return sustained >= t.MinSpeed && gust-sustained >= t.MinGustIncrease
}
