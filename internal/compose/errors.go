package compose

import "errors"

var (
	ErrNotFound        = errors.New("composition not found")
	ErrAssetTooShort   = errors.New("asset is too short for the slot")
	ErrUnresolvedSlots = errors.New("composition has unresolved slots")
	ErrOverlayIndex    = errors.New("text overlay index out of range")
)
