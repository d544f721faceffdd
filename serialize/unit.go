package serialize

// Unit is the serializable equivalent of Rust's (), used for login acks
// that carry no payload beyond their Result tag.
type Unit struct{}

// UnitSerializer emits zero bytes: the first (and only) Fill call is
// terminal.
type UnitSerializer struct{}

func NewUnitSerializer() UnitSerializer { return UnitSerializer{} }

func (UnitSerializer) Fill(out []byte) (int, bool) { return 0, true }

// UnitDeserializer is single-shot: it accepts being fed nothing and
// finalizes to Unit{}. Any bytes fed to it are a framing bug upstream,
// since a well-formed unit value never has a body.
type UnitDeserializer struct{}

func NewUnitDeserializer() UnitDeserializer { return UnitDeserializer{} }

func (UnitDeserializer) Update(chunk []byte) error {
	if len(chunk) != 0 {
		return errUnitNotEmpty
	}
	return nil
}

func (UnitDeserializer) Finalize() (Unit, error) { return Unit{}, nil }

var errUnitNotEmpty = unitError("serialize: unit: unexpected payload bytes")

type unitError string

func (e unitError) Error() string { return string(e) }
