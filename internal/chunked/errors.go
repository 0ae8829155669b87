package chunked

import (
	"fmt"

	"github.com/abduss/goshare/internal/apperr"
)

var (
	// ErrSessionNotFound signals an unknown or already finished upload id.
	ErrSessionNotFound = fmt.Errorf("upload session %w", apperr.ErrNotFound)
	// ErrInvalidPartNumber rejects part numbers outside 1..MaxPartNumber.
	ErrInvalidPartNumber = fmt.Errorf("%w: part number must be between 1 and %d", apperr.ErrInvalidArgument, MaxPartNumber)
	// ErrInvalidSize rejects a declared size that is not a finite non-negative number.
	ErrInvalidSize = fmt.Errorf("%w: size must be a non-negative number", apperr.ErrInvalidArgument)
	// ErrNoParts rejects completing a session before any part was acknowledged.
	ErrNoParts = fmt.Errorf("%w: no parts uploaded", apperr.ErrInvalidArgument)
	// ErrPartTooLarge rejects a single part above MaxPartSize.
	ErrPartTooLarge = fmt.Errorf("%w: part exceeds %d bytes", apperr.ErrTooLarge, MaxPartSize)
)
