package document

import "errors"

var (
	ErrUnknownType     = errors.New("unknown item type")
	ErrInvalidField    = errors.New("invalid field")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotFound        = errors.New("item not found")
	ErrLocked          = errors.New("item is locked")
	ErrCycle           = errors.New("parent would create a cycle")
	ErrInvalidParent   = errors.New("invalid parent")
	ErrEmptyBounds     = errors.New("empty bounds")
	ErrTextureTooLarge = errors.New("texture too large")
)
