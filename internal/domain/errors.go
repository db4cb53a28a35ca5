package domain

import (
	"errors"
	"fmt"
)

// ErrMissingMetadataKey is matched by every MissingKeyError
var ErrMissingMetadataKey = errors.New("missing metadata key")

// MissingKeyError reports a metadata key required by rendering but absent on the entry
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing metadata key %q", e.Key)
}

func (e *MissingKeyError) Is(target error) bool {
	return target == ErrMissingMetadataKey
}
