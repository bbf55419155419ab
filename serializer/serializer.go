// Package serializer defines the payload-marshalling collaborator consumed
// by the cache engine (value cloning) and the message bus (wire payloads).
// Concrete serializer backends are plug-ins; the core subsystems depend
// only on the Serializer interface.
package serializer

import "github.com/cockroachdb/errors"

// ErrTypeAssert is returned when a value's concrete type doesn't match what
// a serializer backend expects (e.g. a ProtobufSerializer given a value
// that isn't a proto.Message).
var ErrTypeAssert = errors.New("serializer: type assert error")

// Serializer marshals values to bytes and back. Implementations must be
// safe for concurrent use.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte, v any) error
}
