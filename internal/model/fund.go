package model

import "time"

// Fund classification types used in governmental reporting. Stored as free
// text; these are the conventional values, not an enforced enum.
const (
	FundTypeGovernmental  = "governmental"
	FundTypeProprietary   = "proprietary"
	FundTypeFiduciary     = "fiduciary"
	FundTypeComponentUnit = "component_unit"
)

// Fund is a shared dimension record, unique by Code across all imports.
type Fund struct {
	ID        int64
	Code      string
	Name      string
	Type      string
	CreatedAt time.Time
}
