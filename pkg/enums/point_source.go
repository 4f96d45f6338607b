package enums

import "fmt"

// PointSource maps to the point_source enum in Postgres. It identifies the
// origin of a point transaction.
type PointSource string

const (
	PointSourcePurchase     PointSource = "purchase"
	PointSourceReview       PointSource = "review"
	PointSourceQuest        PointSource = "quest"
	PointSourceManual       PointSource = "manual"
	PointSourceSubscription PointSource = "subscription"
)

var validPointSources = []PointSource{
	PointSourcePurchase,
	PointSourceReview,
	PointSourceQuest,
	PointSourceManual,
	PointSourceSubscription,
}

// IsValid reports whether the value matches the canonical source enum.
func (s PointSource) IsValid() bool {
	for _, candidate := range validPointSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePointSource converts raw input into PointSource.
func ParsePointSource(value string) (PointSource, error) {
	for _, candidate := range validPointSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid point source %q", value)
}
