package content

import "errors"

var (
	// ErrInvalidContent is returned when a content document fails schema validation or decoding.
	ErrInvalidContent = errors.New("invalid content")
)
