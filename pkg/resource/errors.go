package resource

import "errors"

// Load failure classes. Every fatal error returned while opening a resource or
// compiling its draw calls wraps exactly one of these.
var (
	// ErrSchema means an expected key is missing or has the wrong shape.
	ErrSchema = errors.New("resource schema error")
	// ErrUnsupportedFormat means a primitive type, vertex format or index width
	// outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported resource format")
	// ErrResourceIO means the container or one of its buffers could not be read.
	ErrResourceIO = errors.New("resource read error")
)
