package serialize

// ByteSliceSerializer streams the bytes of a []byte (or, via String, a
// UTF-8 string) verbatim. It holds no copy of the source; it is just an
// index into it.
type ByteSliceSerializer struct {
	data []byte
	pos  int
}

// NewByteSliceSerializer returns a Serializer for a byte slice.
func NewByteSliceSerializer(data []byte) *ByteSliceSerializer {
	return &ByteSliceSerializer{data: data}
}

func (s *ByteSliceSerializer) Fill(out []byte) (int, bool) {
	remaining := len(s.data) - s.pos
	if remaining <= len(out) {
		n := copy(out, s.data[s.pos:])
		s.pos += n
		return n, true
	}
	n := copy(out, s.data[s.pos:s.pos+len(out)])
	s.pos += n
	return n, false
}

// ByteSliceDeserializer accumulates an arbitrary-length byte string
// across frames. Update never fails; Finalize never fails.
type ByteSliceDeserializer struct {
	buf []byte
}

// NewByteSliceDeserializer returns a fresh Deserializer[[]byte].
func NewByteSliceDeserializer() *ByteSliceDeserializer {
	return &ByteSliceDeserializer{}
}

func (d *ByteSliceDeserializer) Update(chunk []byte) error {
	d.buf = append(d.buf, chunk...)
	return nil
}

func (d *ByteSliceDeserializer) Finalize() ([]byte, error) {
	return d.buf, nil
}
