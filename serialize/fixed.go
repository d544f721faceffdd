package serialize

import "fmt"

// FixedDeserializer is the deserializer half of the spec's "fixed byte
// arrays [u8; N]" built-in. Go arrays can't be generic over their own
// length, so this is a bounded buffer configured with a runtime size;
// callers that want a true [N]byte can copy FixedDeserializer.Finalize's
// result into one (login's mode step uses this for its 1-byte mode
// block).
type FixedDeserializer struct {
	size int
	buf  []byte
}

// NewFixedDeserializer returns a Deserializer[[]byte] that errors if fed
// more than size bytes total, and errors at Finalize if fed fewer.
func NewFixedDeserializer(size int) *FixedDeserializer {
	return &FixedDeserializer{size: size, buf: make([]byte, 0, size)}
}

func (d *FixedDeserializer) Update(chunk []byte) error {
	if len(d.buf)+len(chunk) > d.size {
		return fmt.Errorf("serialize: fixed[%d]: overflow by %d bytes", d.size, len(d.buf)+len(chunk)-d.size)
	}
	d.buf = append(d.buf, chunk...)
	return nil
}

func (d *FixedDeserializer) Finalize() ([]byte, error) {
	if len(d.buf) != d.size {
		return nil, fmt.Errorf("serialize: fixed[%d]: short finalize, got %d bytes", d.size, len(d.buf))
	}
	return d.buf, nil
}

// FixedSerializer streams exactly size bytes; it is ByteSliceSerializer
// with an upfront length assertion.
func NewFixedSerializer(data []byte, size int) (*ByteSliceSerializer, error) {
	if len(data) != size {
		return nil, fmt.Errorf("serialize: fixed[%d]: got %d bytes to serialize", size, len(data))
	}
	return NewByteSliceSerializer(data), nil
}
