package model

import "math"

// Sub-score ceilings. MaxTotalScore bounds their sum.
const (
	MaxBaseScore       = 4.0
	MaxContentScore    = 4.0
	MaxSecurityScore   = 2.0
	MaxPatternScore    = 4.0
	MaxVirusTotalScore = 4.0
	MaxTotalScore      = 10.0
)

// RiskLevel is the discrete severity bucket derived from the total score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Risk bucket lower bounds (inclusive).
const (
	MediumThreshold   = 2.5
	HighThreshold     = 5.0
	CriticalThreshold = 7.5
)

// RiskLevelFor maps a total score onto its bucket:
//
//	[0, 2.5) low, [2.5, 5) medium, [5, 7.5) high, [7.5, 10] critical
func RiskLevelFor(total float64) RiskLevel {
	switch {
	case total >= CriticalThreshold:
		return RiskCritical
	case total >= HighThreshold:
		return RiskHigh
	case total >= MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Severity returns an ordinal for comparisons (low=0 .. critical=3, unknown=-1).
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// ReputationScore is the engine's verdict for one ScanResult.
type ReputationScore struct {
	BaseScore       float64 `json:"base_score"`
	ContentScore    float64 `json:"content_score"`
	SecurityScore   float64 `json:"security_score"`
	PatternScore    float64 `json:"pattern_score"`
	VirusTotalScore float64 `json:"virustotal_score"`

	TotalScore float64   `json:"total_score"`
	RiskLevel  RiskLevel `json:"risk_level"`

	Threats        []string `json:"threats"`
	PatternThreats []string `json:"pattern_threats"`
}

// Recalculate derives TotalScore and RiskLevel from the five sub-scores.
// TotalScore is never set any other way.
func (r *ReputationScore) Recalculate() {
	sum := r.BaseScore + r.ContentScore + r.SecurityScore + r.PatternScore + r.VirusTotalScore
	r.TotalScore = Clamp(sum, 0, MaxTotalScore)
	r.RiskLevel = RiskLevelFor(r.TotalScore)
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
