package serialize

import (
	"encoding/binary"
	"fmt"
)

// Message is the concrete application payload (the spec's type
// parameter M) carried by the steady-state block sequence: a chat line
// plus the sender-local send time. spec.md leaves M abstract; this is
// the one instantiation the reference client/server and the tests
// exercise end to end.
type Message struct {
	SentUnixMilli int64
	Body          string
}

// messageSerializer streams an 8-byte big-endian timestamp followed by
// the UTF-8 body bytes.
type messageSerializer struct {
	header   [8]byte
	hdrSer   *ByteSliceSerializer
	wroteHdr bool
	body     *ByteSliceSerializer
}

// NewMessageSerializer builds a Serializer[Message].
func NewMessageSerializer(m Message) Serializer[Message] {
	s := &messageSerializer{body: NewByteSliceSerializer([]byte(m.Body))}
	binary.BigEndian.PutUint64(s.header[:], uint64(m.SentUnixMilli))
	s.hdrSer = NewByteSliceSerializer(s.header[:])
	return s
}

func (s *messageSerializer) Fill(out []byte) (int, bool) {
	if !s.wroteHdr {
		n, done := s.hdrSer.Fill(out)
		if !done {
			// out was entirely consumed by (part of) the 8-byte header.
			return n, false
		}
		s.wroteHdr = true
		bn, bdone := s.body.Fill(out[n:])
		return n + bn, bdone
	}
	return s.body.Fill(out)
}

// messageDeserializer accumulates the raw bytes and splits the
// 8-byte timestamp header from the body at Finalize.
type messageDeserializer struct {
	inner *ByteSliceDeserializer
}

// NewMessageDeserializer returns a fresh Deserializer[Message].
func NewMessageDeserializer() Deserializer[Message] {
	return &messageDeserializer{inner: NewByteSliceDeserializer()}
}

func (d *messageDeserializer) Update(chunk []byte) error {
	return d.inner.Update(chunk)
}

func (d *messageDeserializer) Finalize() (Message, error) {
	raw, _ := d.inner.Finalize()
	if len(raw) < 8 {
		return Message{}, fmt.Errorf("serialize: message: short payload (%d bytes)", len(raw))
	}
	return Message{
		SentUnixMilli: int64(binary.BigEndian.Uint64(raw[:8])),
		Body:          string(raw[8:]),
	}, nil
}
