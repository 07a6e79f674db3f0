package hfsplus

import "github.com/deploymenttheory/go-hfsplus/internal/types"

// Errors returned by the volume. Test for them with errors.Is.
var (
	ErrShortRead          = types.ErrShortRead
	ErrCorruptStructure   = types.ErrCorruptStructure
	ErrNotFound           = types.ErrNotFound
	ErrUnsupportedVariant = types.ErrUnsupportedVariant
)
