package domain

import "time"

// Window is one rolling rate-limit window reported by the usage endpoint.
type Window struct {
	UsedPercent *float64   `json:"used_percent,omitempty"`
	ResetAt     *time.Time `json:"reset_at,omitempty"`
}

// Snapshot is the normalized result of one usage-limits fetch.
type Snapshot struct {
	Plan         string  `json:"plan,omitempty"`
	Primary      *Window `json:"primary,omitempty"`
	Secondary    *Window `json:"secondary,omitempty"`
	LimitReached bool    `json:"limit_reached,omitempty"`
}

type Severity int

const (
	SeverityOK Severity = iota
	SeverityElevated
	SeverityCritical
	SeverityLimit
)

const (
	elevatedThreshold = 70
	criticalThreshold = 90
)

func SeverityFor(usedPercent float64) Severity {
	switch {
	case usedPercent >= 100:
		return SeverityLimit
	case usedPercent >= criticalThreshold:
		return SeverityCritical
	case usedPercent >= elevatedThreshold:
		return SeverityElevated
	default:
		return SeverityOK
	}
}

// Severity reports the worst severity across both windows, folding in the
// limit_reached flag from the API.
func (s Snapshot) Severity() Severity {
	worst := SeverityOK
	if s.LimitReached {
		worst = SeverityLimit
	}
	for _, w := range []*Window{s.Primary, s.Secondary} {
		if w == nil || w.UsedPercent == nil {
			continue
		}
		if sev := SeverityFor(*w.UsedPercent); sev > worst {
			worst = sev
		}
	}
	return worst
}

func Float64Ptr(v float64) *float64 {
	return &v
}
