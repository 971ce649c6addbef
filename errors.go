package poolfolio

import "errors"

// Sentinel errors returned by the engine. Callers match them with errors.Is
// to tell validation mistakes apart from data-consistency problems.
var (
	// ErrInvalidAcquisition is returned when an acquisition cannot open a
	// lot, typically because its quantity is not strictly positive.
	ErrInvalidAcquisition = errors.New("invalid acquisition")

	// ErrInsufficientLotQuantity is returned when a consume request exceeds
	// a lot's remaining quantity.
	ErrInsufficientLotQuantity = errors.New("insufficient lot quantity")

	// ErrInsufficientQuantity is returned when the open lots for a holding
	// cannot cover a sale. It usually means an acquisition was never
	// claimed or imported.
	ErrInsufficientQuantity = errors.New("insufficient open lot quantity")

	// ErrSpecIDMismatch is returned when an explicit lot selection does not
	// add up to the sale quantity exactly, or names a lot that cannot
	// supply the requested quantity.
	ErrSpecIDMismatch = errors.New("specific identification mismatch")

	// ErrInvalidMethod is returned for cost basis method strings outside
	// the supported set.
	ErrInvalidMethod = errors.New("invalid cost basis method")

	// ErrUnknownTxType is returned when a transaction carries a type
	// outside the supported set.
	ErrUnknownTxType = errors.New("unknown transaction type")

	// ErrNotFound is returned when a transaction or lot does not exist in
	// the store.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyClaimed is returned when claiming a transaction that
	// already belongs to an owner.
	ErrAlreadyClaimed = errors.New("transaction already claimed")

	// ErrLotConsumed is returned when a selection names a lot with no
	// remaining quantity.
	ErrLotConsumed = errors.New("lot fully consumed")
)
