package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
	ErrInternal = errors.New("internal")

	ErrExtractionFailed    = errors.New("extraction failed")
	ErrFileNotFound        = errors.New("backing file not found")
	ErrIndexUnavailable    = errors.New("vector index unavailable")
	ErrClassificationParse = errors.New("classification parse failed")
	ErrAIUnavailable       = errors.New("ai not available")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsClassificationParse(err error) bool {
	return errors.Is(err, ErrClassificationParse)
}
