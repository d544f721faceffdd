package serialize

import "fmt"

// Option mirrors Rust's Option<T>: a one-byte tag (0 = none, 1 = some)
// followed by the inner payload when present. It is the wire
// representation of the steady-state "recipient or goodbye" block
// (Option<String>, spec.md §4.5/§6).
type Option[T any] struct {
	Some  bool
	Value T
}

// None constructs an absent Option[T].
func None[T any]() Option[T] { return Option[T]{} }

// Some constructs a present Option[T].
func Some[T any](v T) Option[T] { return Option[T]{Some: true, Value: v} }

// optionSerializer writes the tag byte, then (if present) delegates to
// the inner value's Serializer.
type optionSerializer[T any] struct {
	tagByte    byte
	tagWritten bool
	inner      Serializer[T] // nil when representing None
}

// NewOptionSerializer builds a Serializer for an Option[T]. newInner is
// called only when opt.Some is true, to build the Serializer for the
// contained value.
func NewOptionSerializer[T any](opt Option[T], newInner func(T) Serializer[T]) Serializer[Option[T]] {
	s := &optionSerializer[T]{}
	if opt.Some {
		s.tagByte = 1
		s.inner = newInner(opt.Value)
	}
	return s
}

func (s *optionSerializer[T]) Fill(out []byte) (int, bool) {
	if !s.tagWritten {
		if len(out) == 0 {
			return 0, false
		}
		out[0] = s.tagByte
		s.tagWritten = true
		if s.inner == nil {
			return 1, true
		}
		n, done := s.inner.Fill(out[1:])
		return 1 + n, done
	}
	return s.inner.Fill(out)
}

// optionDeserializer reads the tag byte, then (if present) delegates to
// a freshly constructed inner Deserializer.
type optionDeserializer[T any] struct {
	haveTag  bool
	isSome   bool
	inner    Deserializer[T]
	newInner NewDeserializer[T]
}

// NewOptionDeserializer returns a fresh Deserializer[Option[T]].
func NewOptionDeserializer[T any](newInner NewDeserializer[T]) Deserializer[Option[T]] {
	return &optionDeserializer[T]{newInner: newInner}
}

func (d *optionDeserializer[T]) Update(chunk []byte) error {
	if !d.haveTag {
		if len(chunk) == 0 {
			return nil
		}
		switch chunk[0] {
		case 0:
			d.isSome = false
		case 1:
			d.isSome = true
			d.inner = d.newInner()
		default:
			return fmt.Errorf("serialize: option: bad tag %d", chunk[0])
		}
		d.haveTag = true
		chunk = chunk[1:]
	}
	if len(chunk) == 0 {
		return nil
	}
	if !d.isSome {
		return fmt.Errorf("serialize: option: unexpected %d trailing bytes on None", len(chunk))
	}
	return d.inner.Update(chunk)
}

func (d *optionDeserializer[T]) Finalize() (Option[T], error) {
	if !d.haveTag {
		return Option[T]{}, fmt.Errorf("serialize: option: missing tag byte")
	}
	if !d.isSome {
		return Option[T]{}, nil
	}
	v, err := d.inner.Finalize()
	if err != nil {
		return Option[T]{}, err
	}
	return Option[T]{Some: true, Value: v}, nil
}
