package protocol

const (
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrConflict      = "E_CONFLICT"
	ErrBlocked       = "E_BLOCKED"

	// Navigation outcomes.
	ErrNoPath    = "E_NO_PATH"
	ErrStalled   = "E_STALLED"
	ErrDigFailed = "E_DIG_FAILED"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:    {},
	ErrInvalidTarget: {},
	ErrConflict:      {},
	ErrBlocked:       {},
	ErrNoPath:        {},
	ErrStalled:       {},
	ErrDigFailed:     {},
	ErrInternal:      {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
