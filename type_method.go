package poolfolio

import (
	"fmt"
	"strings"
)

// CostBasisMethod selects which open lots a sale draws from.
type CostBasisMethod string

const (
	// FIFO consumes lots in ascending acquisition date order.
	FIFO CostBasisMethod = "FIFO"
	// LIFO consumes lots in descending acquisition date order.
	LIFO CostBasisMethod = "LIFO"
	// HIFO consumes lots in descending per unit cost order.
	HIFO CostBasisMethod = "HIFO"
	// SpecID consumes exactly the lots the caller names.
	SpecID CostBasisMethod = "SPECID"
)

// ParseCostBasisMethod validates a user supplied method string. It is case
// insensitive and rejects anything outside the supported set.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch m := CostBasisMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case FIFO, LIFO, HIFO, SpecID:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want FIFO, LIFO, HIFO or SPECID)", ErrInvalidMethod, s)
	}
}

func (m CostBasisMethod) String() string { return string(m) }
