package serialize

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// drive pumps ser into deser through buffers of exactly chunkSize
// bytes (the last one may be shorter), simulating an arbitrary frame
// size boundary rather than handing the whole payload over in one
// call.
func drive[T any](t *testing.T, ser Serializer[T], deser Deserializer[T], chunkSize int) T {
	t.Helper()
	buf := make([]byte, chunkSize)
	for {
		n, done := ser.Fill(buf)
		if n > 0 {
			require.NoError(t, deser.Update(buf[:n]))
		}
		if done {
			break
		}
	}
	v, err := deser.Finalize()
	require.NoError(t, err)
	return v
}

func TestByteSliceRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 7, 8, 9, 100, 1024, 4096}
	for _, l := range lengths {
		for _, chunk := range []int{1, 3, 64, 4096} {
			data := bytes.Repeat([]byte{0xAB}, l)
			got := drive[[]byte](t, NewByteSliceSerializer(data), NewByteSliceDeserializer(), chunk)
			require.Equal(t, data, got)
		}
	}
}

func TestFixedDeserializerOverflow(t *testing.T) {
	d := NewFixedDeserializer(4)
	require.NoError(t, d.Update([]byte{1, 2}))
	err := d.Update([]byte{3, 4, 5})
	require.Error(t, err)
}

func TestFixedDeserializerShortFinalize(t *testing.T) {
	d := NewFixedDeserializer(4)
	require.NoError(t, d.Update([]byte{1, 2}))
	_, err := d.Finalize()
	require.Error(t, err)
}

func TestFixedRoundTrip(t *testing.T) {
	ser, err := NewFixedSerializer([]byte{1, 2, 3, 4}, 4)
	require.NoError(t, err)
	got := drive[[]byte](t, ser, NewFixedDeserializer(4), 1)
	require.Equal(t, []byte{1, 2, 3, 4}, got)
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "hello, world", "unicode: é中"} {
		got := drive[string](t, NewStringSerializer(s), NewStringDeserializer(), 3)
		require.Equal(t, s, got)
	}
}

func TestStringInvalidUTF8(t *testing.T) {
	d := NewStringDeserializer()
	require.NoError(t, d.Update([]byte{0xff, 0xfe}))
	_, err := d.Finalize()
	require.Error(t, err)
}

func TestUnitRoundTrip(t *testing.T) {
	got := drive[Unit](t, NewUnitSerializer(), NewUnitDeserializer(), 8)
	require.Equal(t, Unit{}, got)
}

func TestUnitRejectsExtraBytes(t *testing.T) {
	d := NewUnitDeserializer()
	require.Error(t, d.Update([]byte{1}))
}

func TestOptionRoundTrip(t *testing.T) {
	newInner := func(s string) Serializer[string] { return NewStringSerializer(s) }
	newDeser := func() Deserializer[string] { return NewStringDeserializer() }

	none := None[string]()
	got := drive[Option[string]](t, NewOptionSerializer(none, newInner), NewOptionDeserializer(newDeser), 2)
	require.False(t, got.Some)

	some := Some("hi")
	got = drive[Option[string]](t, NewOptionSerializer(some, newInner), NewOptionDeserializer(newDeser), 1)
	require.True(t, got.Some)
	require.Equal(t, "hi", got.Value)
}

func TestResultRoundTrip(t *testing.T) {
	newOk := func(v Unit) Serializer[Unit] { return NewUnitSerializer() }
	newErr := func(s string) Serializer[string] { return NewStringSerializer(s) }
	newOkDeser := func() Deserializer[Unit] { return NewUnitDeserializer() }
	newErrDeser := func() Deserializer[string] { return NewStringDeserializer() }

	ok := Ok[Unit, string](Unit{})
	got := drive[Result[Unit, string]](t, NewResultSerializer(ok, newOk, newErr), NewResultDeserializer(newOkDeser, newErrDeser), 4)
	require.True(t, got.Ok)

	fail := Err[Unit, string]("invalid credentials")
	got = drive[Result[Unit, string]](t, NewResultSerializer(fail, newOk, newErr), NewResultDeserializer(newOkDeser, newErrDeser), 1)
	require.False(t, got.Ok)
	require.Equal(t, "invalid credentials", got.ErrValue)
}

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{SentUnixMilli: 1717171717000, Body: "hello there, this body is long enough to span several small chunks"}
	for _, chunk := range []int{1, 2, 7, 8, 9, 64} {
		got := drive[Message](t, NewMessageSerializer(msg), NewMessageDeserializer(), chunk)
		require.Equal(t, msg, got)
	}
}

func TestMessageShortPayload(t *testing.T) {
	d := NewMessageDeserializer()
	require.NoError(t, d.Update([]byte{1, 2, 3}))
	_, err := d.Finalize()
	require.Error(t, err)
}
