package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/catchat/chat/chaterr"
	"github.com/catchat/chat/serialize"
)

// WriteBlock serializes value via ser across one or more frames. Every
// call emits at least one frame, even for a zero-length payload
// (spec.md §3's invariant): the first 8 bytes of each frame's plaintext
// are a big-endian length header (0 = continuation, v>0 = terminal with
// v-1 payload bytes), and the remaining n-8 bytes carry serializer
// output.
func WriteBlock[T any](bs *BlockStream, ser serialize.Serializer[T]) error {
	buf := make([]byte, bs.n)
	for {
		k, done := ser.Fill(buf[8:])
		if !done {
			binary.BigEndian.PutUint64(buf[0:8], 0)
			if err := bs.writeFrame(buf); err != nil {
				return err
			}
			continue
		}
		binary.BigEndian.PutUint64(buf[0:8], uint64(k)+1)
		if err := bs.writeFrame(buf); err != nil {
			return err
		}
		return nil
	}
}

// ReadBlock reads one or more frames and reassembles them into a value
// of type T via a fresh Deserializer[T] built by newDeser.
func ReadBlock[T any](bs *BlockStream, newDeser serialize.NewDeserializer[T]) (T, error) {
	var zero T
	deser := newDeser()
	for {
		plaintext, err := bs.readFrame()
		if err != nil {
			return zero, err
		}
		header := binary.BigEndian.Uint64(plaintext[0:8])
		if header == 0 {
			if err := deser.Update(plaintext[8:]); err != nil {
				return zero, chaterr.Update(err)
			}
			continue
		}
		payloadLen := header - 1
		if payloadLen > uint64(bs.n-8) {
			return zero, chaterr.Header(fmt.Errorf("terminal frame claims %d payload bytes, max %d", payloadLen, bs.n-8))
		}
		if payloadLen > 0 {
			if err := deser.Update(plaintext[8 : 8+payloadLen]); err != nil {
				return zero, chaterr.Update(err)
			}
		}
		value, err := deser.Finalize()
		if err != nil {
			return zero, chaterr.Finalize(err)
		}
		return value, nil
	}
}
