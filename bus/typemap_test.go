package bus

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fooPayload struct{ A int }

func TestTypeMap_NameFromTypeIsStableAndReversible(t *testing.T) {
	tm := newTypeMap(nil)
	typ := reflect.TypeOf(fooPayload{})

	name := tm.nameFromType(typ)
	assert.NotEmpty(t, name)

	got, ok := tm.typeFromName(name)
	assert.True(t, ok)
	assert.Equal(t, typ, got)
}

func TestTypeMap_RegisterMakesTypeResolvableBeforeNameFromType(t *testing.T) {
	tm := newTypeMap(nil)
	typ := reflect.TypeOf(fooPayload{})

	tm.register(typ)

	name := defaultTypeName(typ)
	got, ok := tm.typeFromName(name)
	assert.True(t, ok)
	assert.Equal(t, typ, got)
}

func TestTypeMap_OverrideTakesPrecedence(t *testing.T) {
	typ := reflect.TypeOf(fooPayload{})
	tm := newTypeMap(map[string]reflect.Type{"foo.Payload": typ})

	name := tm.nameFromType(typ)
	assert.Equal(t, "foo.Payload", name)

	got, ok := tm.typeFromName("foo.Payload")
	assert.True(t, ok)
	assert.Equal(t, typ, got)
}

func TestTypeMap_UnknownNameIsNotFound(t *testing.T) {
	tm := newTypeMap(nil)
	_, ok := tm.typeFromName("does.not.Exist")
	assert.False(t, ok)
}

func TestTypeMap_StripsVersionTailAndRetries(t *testing.T) {
	tm := newTypeMap(nil)
	typ := reflect.TypeOf(fooPayload{})
	name := tm.nameFromType(typ)

	decorated := name + ", Version=1.0.0.0, Culture=neutral"
	got, ok := tm.typeFromName(decorated)
	assert.True(t, ok)
	assert.Equal(t, typ, got)
}
