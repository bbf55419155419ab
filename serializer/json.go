package serializer

import "encoding/json"

// JSONSerializer is the default Serializer backend.
type JSONSerializer struct{}

// Marshal encodes v as JSON.
func (JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON into v.
func (JSONSerializer) Unmarshal(b []byte, v any) error {
	return json.Unmarshal(b, v)
}
