package serialize

import "fmt"

// Result mirrors Rust's Result<T, E>: a one-byte tag (1 = Ok, 0 = Err)
// followed by the payload of the chosen arm. Login acks use
// Result[Unit, Unit]; the final login verdict uses
// Result[Unit, string].
type Result[T, E any] struct {
	Ok       bool
	Value    T
	ErrValue E
}

// Ok constructs a successful Result.
func Ok[T, E any](v T) Result[T, E] { return Result[T, E]{Ok: true, Value: v} }

// Err constructs a failed Result.
func Err[T, E any](e E) Result[T, E] { return Result[T, E]{ErrValue: e} }

type resultSerializer[T, E any] struct {
	tagByte    byte
	tagWritten bool
	inner      interface{ Fill([]byte) (int, bool) }
}

// NewResultSerializer builds a Serializer for a Result[T, E].
func NewResultSerializer[T, E any](r Result[T, E], newOk func(T) Serializer[T], newErr func(E) Serializer[E]) Serializer[Result[T, E]] {
	s := &resultSerializer[T, E]{}
	if r.Ok {
		s.tagByte = 1
		s.inner = newOk(r.Value)
	} else {
		s.inner = newErr(r.ErrValue)
	}
	return s
}

func (s *resultSerializer[T, E]) Fill(out []byte) (int, bool) {
	if !s.tagWritten {
		if len(out) == 0 {
			return 0, false
		}
		out[0] = s.tagByte
		s.tagWritten = true
		n, done := s.inner.Fill(out[1:])
		return 1 + n, done
	}
	return s.inner.Fill(out)
}

type resultDeserializer[T, E any] struct {
	haveTag bool
	ok      bool
	okInner Deserializer[T]
	errInner Deserializer[E]
	newOk    NewDeserializer[T]
	newErr   NewDeserializer[E]
}

// NewResultDeserializer returns a fresh Deserializer[Result[T, E]].
func NewResultDeserializer[T, E any](newOk NewDeserializer[T], newErr NewDeserializer[E]) Deserializer[Result[T, E]] {
	return &resultDeserializer[T, E]{newOk: newOk, newErr: newErr}
}

func (d *resultDeserializer[T, E]) Update(chunk []byte) error {
	if !d.haveTag {
		if len(chunk) == 0 {
			return nil
		}
		switch chunk[0] {
		case 1:
			d.ok = true
			d.okInner = d.newOk()
		case 0:
			d.ok = false
			d.errInner = d.newErr()
		default:
			return fmt.Errorf("serialize: result: bad tag %d", chunk[0])
		}
		d.haveTag = true
		chunk = chunk[1:]
	}
	if len(chunk) == 0 {
		return nil
	}
	if d.ok {
		return d.okInner.Update(chunk)
	}
	return d.errInner.Update(chunk)
}

func (d *resultDeserializer[T, E]) Finalize() (Result[T, E], error) {
	if !d.haveTag {
		return Result[T, E]{}, fmt.Errorf("serialize: result: missing tag byte")
	}
	if d.ok {
		v, err := d.okInner.Finalize()
		if err != nil {
			return Result[T, E]{}, err
		}
		return Result[T, E]{Ok: true, Value: v}, nil
	}
	e, err := d.errInner.Finalize()
	if err != nil {
		return Result[T, E]{}, err
	}
	return Result[T, E]{ErrValue: e}, nil
}
