package resolve

import (
	"fmt"
	"math"
)

// Tier buckets a numeric confidence.
type Tier string

const (
	High   Tier = "HIGH"
	Medium Tier = "MEDIUM"
	Low    Tier = "LOW"
)

// TierPolicy holds the lower bounds of the HIGH and MEDIUM tiers. Anything
// below Medium is LOW.
type TierPolicy struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// DefaultTierPolicy is >= 0.75 HIGH, >= 0.50 MEDIUM, else LOW.
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{High: 0.75, Medium: 0.50}
}

// Validate requires 0 <= Medium <= High <= 1.
func (p TierPolicy) Validate() error {
	if math.IsNaN(p.High) || math.IsNaN(p.Medium) {
		return fmt.Errorf("tier thresholds must be numbers")
	}
	if p.Medium < 0 || p.High > 1 || p.Medium > p.High {
		return fmt.Errorf("tier thresholds must satisfy 0 <= medium (%v) <= high (%v) <= 1", p.Medium, p.High)
	}
	return nil
}

// Classify maps a confidence to its tier. NaN is LOW.
func (p TierPolicy) Classify(confidence float64) Tier {
	switch {
	case math.IsNaN(confidence):
		return Low
	case confidence >= p.High:
		return High
	case confidence >= p.Medium:
		return Medium
	default:
		return Low
	}
}
