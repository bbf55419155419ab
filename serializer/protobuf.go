package serializer

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// ProtobufSerializer marshals values that implement proto.Message.
type ProtobufSerializer struct{}

// Marshal encodes v as a protobuf wire message.
func (ProtobufSerializer) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%w: value does not implement proto.Message: %T", ErrTypeAssert, v)
	}
	return proto.Marshal(m)
}

// Unmarshal decodes a protobuf wire message into v.
func (ProtobufSerializer) Unmarshal(b []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: value does not implement proto.Message: %T", ErrTypeAssert, v)
	}
	return proto.Unmarshal(b, m)
}
