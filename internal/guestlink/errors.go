package guestlink

import (
	"fmt"

	"github.com/abduss/goshare/internal/apperr"
)

var (
	// ErrLinkNotFound signals an unknown guest link id.
	ErrLinkNotFound = fmt.Errorf("guest link %w", apperr.ErrNotFound)
	// ErrEmptyBatch rejects a guest upload carrying no files.
	ErrEmptyBatch = fmt.Errorf("%w: no files in upload", apperr.ErrInvalidArgument)
	// ErrInvalidLimits rejects negative link limits.
	ErrInvalidLimits = fmt.Errorf("%w: guest link limits must not be negative and file lifetime must be at least one day", apperr.ErrInvalidArgument)
)
