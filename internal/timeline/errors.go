package timeline

import "errors"

var (
	// ErrMalformedScript means the template script had no usable clip
	// structure. Callers surface it to the user and must not start a
	// composition from the empty slot list.
	ErrMalformedScript = errors.New("template script has no usable structure")

	ErrUnknownSlot  = errors.New("unknown slot")
	ErrEmptyOverlay = errors.New("overlay content is empty")
)
