package source

import "errors"

var (
	ErrSourceNotFound    = errors.New("source_not_found")
	ErrInvalidSourceType = errors.New("invalid_source_type")
)
