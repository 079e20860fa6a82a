package rcsa

// Impact and likelihood scores live on a 1..5 integer scale; out-of-range
// input is clamped on write rather than rejected.
const (
	scaleMin = 1
	scaleMax = 5
)

// ClampScore clamps a raw score to the 1..5 scale. Nil passes through so an
// unfilled field stays unfilled.
func ClampScore(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	if c < scaleMin {
		c = scaleMin
	}
	if c > scaleMax {
		c = scaleMax
	}
	return &c
}

// RiskValue computes impact x likelihood, or nil when either is missing.
func RiskValue(impact, likelihood *int) *int {
	if impact == nil || likelihood == nil {
		return nil
	}
	v := *impact * *likelihood
	return &v
}

// LevelForValue derives the qualitative level from a risk value. Thresholds
// are inclusive lower bounds: <5 Low, 5-11 Medium, 12-19 High, >=20 Very High.
func LevelForValue(value *int) RiskLevel {
	if value == nil {
		return ""
	}
	switch v := *value; {
	case v >= 20:
		return LevelVeryHigh
	case v >= 12:
		return LevelHigh
	case v >= 5:
		return LevelMedium
	default:
		return LevelLow
	}
}
