package claim

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the coarse classification of a 0..100 fraud score.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

var riskLevelNames = map[RiskLevel]string{
	RiskLow:    "LOW",
	RiskMedium: "MEDIUM",
	RiskHigh:   "HIGH",
}

// String returns the canonical upper-case name.
func (r RiskLevel) String() string {
	if name, ok := riskLevelNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RiskLevel(%d)", int(r))
}

// MarshalJSON encodes the level as its string name so API payloads and stored
// reports stay readable.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON accepts the string name written by MarshalJSON.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*r = ParseRiskLevel(name)
	return nil
}

// ParseRiskLevel maps a stored name back to its level.  Unknown names map to
// RiskLow, matching the scoring floor.
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "HIGH":
		return RiskHigh
	case "MEDIUM":
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClassifyScore maps a 0..100 score onto a RiskLevel given the two lower
// bounds.  This is the single classification point for the whole pipeline;
// rule scoring, ensemble scoring, and routing all call it with the same
// configured cut-offs.
func ClassifyScore(score, highMin, mediumMin int) RiskLevel {
	switch {
	case score >= highMin:
		return RiskHigh
	case score >= mediumMin:
		return RiskMedium
	default:
		return RiskLow
	}
}
