package entry

import (
	"fmt"

	"github.com/abduss/goshare/internal/apperr"
)

var (
	// ErrEntryNotFound signals that no entry exists under the requested id.
	ErrEntryNotFound = fmt.Errorf("entry %w", apperr.ErrNotFound)
	// ErrInvalidExpiration rejects negative expiration days.
	ErrInvalidExpiration = fmt.Errorf("%w: expiration days must not be negative", apperr.ErrInvalidArgument)
	// ErrEmptyUpload rejects a request that carries neither a file nor text.
	ErrEmptyUpload = fmt.Errorf("%w: a file or text is required", apperr.ErrInvalidArgument)
)
