package serialize

import (
	"fmt"
	"unicode/utf8"
)

// NewStringSerializer streams a string as its UTF-8 bytes.
func NewStringSerializer(s string) *ByteSliceSerializer {
	return NewByteSliceSerializer([]byte(s))
}

// StringDeserializer accumulates bytes and validates UTF-8 only at
// Finalize, so partial multi-byte runes split across frame boundaries
// are never rejected prematurely.
type StringDeserializer struct {
	inner *ByteSliceDeserializer
}

// NewStringDeserializer returns a fresh Deserializer[string].
func NewStringDeserializer() *StringDeserializer {
	return &StringDeserializer{inner: NewByteSliceDeserializer()}
}

func (d *StringDeserializer) Update(chunk []byte) error {
	return d.inner.Update(chunk)
}

func (d *StringDeserializer) Finalize() (string, error) {
	b, _ := d.inner.Finalize()
	if !utf8.Valid(b) {
		return "", fmt.Errorf("serialize: string: invalid UTF-8")
	}
	return string(b), nil
}
