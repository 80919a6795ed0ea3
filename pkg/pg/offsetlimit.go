package pg

import (
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// OffsetLimit is embedded in list requests
type OffsetLimit struct {
	Offset uint64  `json:"offset,omitempty"`
	Limit  *uint64 `json:"limit,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Bind sets the offsetlimit variable, clamping the limit to max. A zero
// max means no upper bound.
func (ol *OffsetLimit) Bind(bind *Bind, max uint64) {
	limit := max
	if ol.Limit != nil && *ol.Limit > 0 && (max == 0 || *ol.Limit < max) {
		limit = *ol.Limit
	}

	var clause string
	switch {
	case limit == 0 && ol.Offset == 0:
		clause = ""
	case limit == 0:
		clause = fmt.Sprintf("OFFSET %d", ol.Offset)
	case ol.Offset == 0:
		clause = fmt.Sprintf("LIMIT %d", limit)
	default:
		clause = fmt.Sprintf("LIMIT %d OFFSET %d", limit, ol.Offset)
	}
	bind.Set("offsetlimit", clause)
}
