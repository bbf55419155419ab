package serializer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONSerializer_Marshal(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    []byte
		wantErr bool
	}{
		{
			name: "struct to JSON",
			input: struct {
				Name string `json:"name"`
				Age  int    `json:"age"`
			}{
				Name: "taro",
				Age:  30,
			},
			want: []byte(`{"name":"taro","age":30}`),
		},
		{
			name:  "nil to JSON",
			input: nil,
			want:  []byte(`null`),
		},
		{
			name:    "value that cannot be marshalled",
			input:   func() {},
			wantErr: true,
		},
	}

	s := JSONSerializer{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Marshal(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)

			var v interface{}
			assert.NoError(t, json.Unmarshal(got, &v))
		})
	}
}

func TestJSONSerializer_Unmarshal(t *testing.T) {
	type testStruct struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	tests := []struct {
		name    string
		input   []byte
		target  *testStruct
		want    *testStruct
		wantErr bool
	}{
		{
			name:   "JSON to struct",
			input:  []byte(`{"name":"hanako","age":25}`),
			target: &testStruct{},
			want:   &testStruct{Name: "hanako", Age: 25},
		},
		{
			name:   "empty JSON object",
			input:  []byte(`{}`),
			target: &testStruct{},
			want:   &testStruct{},
		},
		{
			name:    "malformed JSON",
			input:   []byte(`{"name":"hanako","age":25`),
			target:  &testStruct{},
			wantErr: true,
		},
		{
			name:    "type mismatch",
			input:   []byte(`{"name":123,"age":"invalid"}`),
			target:  &testStruct{},
			wantErr: true,
		},
	}

	s := JSONSerializer{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Unmarshal(tt.input, tt.target)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, tt.target)
		})
	}
}
