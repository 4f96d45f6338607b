package enums

import "fmt"

// PointTransactionKind maps to the point_transaction_kind enum in Postgres.
type PointTransactionKind string

const (
	PointTransactionKindEarned   PointTransactionKind = "earned"
	PointTransactionKindRedeemed PointTransactionKind = "redeemed"
)

var validPointTransactionKinds = []PointTransactionKind{
	PointTransactionKindEarned,
	PointTransactionKindRedeemed,
}

// IsValid reports whether the value matches the canonical kind enum.
func (k PointTransactionKind) IsValid() bool {
	for _, candidate := range validPointTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePointTransactionKind converts raw input into PointTransactionKind.
func ParsePointTransactionKind(value string) (PointTransactionKind, error) {
	for _, candidate := range validPointTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid point transaction kind %q", value)
}
