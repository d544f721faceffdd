// Package serialize provides the streaming serialize/deserialize
// abstraction that BlockStream payloads plug into: a Serializer is
// repeatedly asked to fill caller-supplied byte windows, and a
// Deserializer is repeatedly fed caller-supplied byte windows, so that
// a value can be streamed across many fixed-size AEAD frames. The
// built-in deserializers accumulate a value's bytes until Finalize.
package serialize

// Serializer streams the encoding of a single value of type T into
// successive caller-supplied windows.
//
// Fill writes into out and reports how many bytes it wrote and whether
// this call produced the terminal chunk of the value. When done is
// false, Fill must have written exactly len(out) bytes; the caller will
// invoke Fill again with a fresh window. When done is true, n is the
// number of meaningful bytes written (0 <= n <= len(out)); any
// trailing bytes of out are unused padding. Once Fill returns done ==
// true, further calls are undefined.
type Serializer[T any] interface {
	Fill(out []byte) (n int, done bool)
}

// Deserializer accumulates the encoding of a single value of type T
// across successive Update calls, then produces the value with
// Finalize.
type Deserializer[T any] interface {
	// Update feeds the next chunk of encoded bytes. It returns an error
	// if the bytes so far are already known to be malformed.
	Update(chunk []byte) error

	// Finalize consumes all bytes fed via Update and produces the
	// decoded value, or an error if the accumulated bytes do not decode.
	Finalize() (T, error)
}

// NewDeserializer constructs a fresh, zero-valued Deserializer[T]. A
// BlockStream needs one of these per ReadBlock call, since a
// Deserializer carries the in-progress state of a single value and
// cannot be reused across values.
type NewDeserializer[T any] func() Deserializer[T]
