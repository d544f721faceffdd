// Package login is the bidirectional handshake of spec.md §4.4/§6: the
// client writes a step, then reads a one-byte-equivalent ack; the
// server reads the step, then writes the ack. Any negative ack is
// terminal: the writer additionally sends a human-readable reason
// block before the connection closes, except the final verdict, which
// already carries its reason inline (Result<(), String>).
package login

import (
	"fmt"

	"github.com/catchat/chat/identity"
	"github.com/catchat/chat/serialize"
	"github.com/catchat/chat/wire"
)

// ack is the wire type of steps 1-3's acknowledgement.
type ack = serialize.Result[serialize.Unit, serialize.Unit]

// verdict is the wire type of the final, step-4 acknowledgement, which
// carries its failure reason inline instead of in a follow-up block.
type verdict = serialize.Result[serialize.Unit, string]

func writeAck(bs *wire.BlockStream, ok bool) error {
	var r ack
	if ok {
		r = serialize.Ok[serialize.Unit, serialize.Unit](serialize.Unit{})
	} else {
		r = serialize.Err[serialize.Unit, serialize.Unit](serialize.Unit{})
	}
	return wire.WriteBlock[ack](bs, serialize.NewResultSerializer(r,
		func(serialize.Unit) serialize.Serializer[serialize.Unit] { return serialize.NewUnitSerializer() },
		func(serialize.Unit) serialize.Serializer[serialize.Unit] { return serialize.NewUnitSerializer() },
	))
}

func readAck(bs *wire.BlockStream) (bool, error) {
	r, err := wire.ReadBlock[ack](bs, func() serialize.Deserializer[ack] {
		return serialize.NewResultDeserializer[serialize.Unit, serialize.Unit](
			func() serialize.Deserializer[serialize.Unit] { return serialize.NewUnitDeserializer() },
			func() serialize.Deserializer[serialize.Unit] { return serialize.NewUnitDeserializer() },
		)
	})
	if err != nil {
		return false, err
	}
	return r.Ok, nil
}

func writeReason(bs *wire.BlockStream, reason string) error {
	return wire.WriteBlock[string](bs, serialize.NewStringSerializer(reason))
}

func readReason(bs *wire.BlockStream) (string, error) {
	return wire.ReadBlock[string](bs, func() serialize.Deserializer[string] { return serialize.NewStringDeserializer() })
}

func writeVerdict(bs *wire.BlockStream, reason string) error {
	var r verdict
	if reason == "" {
		r = serialize.Ok[serialize.Unit, string](serialize.Unit{})
	} else {
		r = serialize.Err[serialize.Unit, string](reason)
	}
	return wire.WriteBlock[verdict](bs, serialize.NewResultSerializer(r,
		func(serialize.Unit) serialize.Serializer[serialize.Unit] { return serialize.NewUnitSerializer() },
		func(s string) serialize.Serializer[string] { return serialize.NewStringSerializer(s) },
	))
}

func readVerdict(bs *wire.BlockStream) (verdict, error) {
	return wire.ReadBlock[verdict](bs, func() serialize.Deserializer[verdict] {
		return serialize.NewResultDeserializer[serialize.Unit, string](
			func() serialize.Deserializer[serialize.Unit] { return serialize.NewUnitDeserializer() },
			func() serialize.Deserializer[string] { return serialize.NewStringDeserializer() },
		)
	})
}

func writeMode(bs *wire.BlockStream, newUser bool) error {
	b := byte(0)
	if newUser {
		b = 1
	}
	return wire.WriteBlock[[]byte](bs, serialize.NewByteSliceSerializer([]byte{b}))
}

func readMode(bs *wire.BlockStream) (bool, error) {
	raw, err := wire.ReadBlock[[]byte](bs, func() serialize.Deserializer[[]byte] {
		return serialize.NewFixedDeserializer(1)
	})
	if err != nil {
		return false, err
	}
	switch raw[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("login: bad mode byte %d", raw[0])
	}
}

// ClientLogin drives the login sequence as the initiator: write mode,
// read ack (and reason on failure); write username, read ack (and
// reason); write password, read ack (and reason); read the final
// verdict. It returns the logged-in/created User on success.
func ClientLogin(bs *wire.BlockStream, newUser bool, username string, password []byte) (identity.User, error) {
	if err := writeMode(bs, newUser); err != nil {
		return identity.User{}, err
	}
	if err := expectAck(bs); err != nil {
		return identity.User{}, err
	}

	if err := wire.WriteBlock[string](bs, serialize.NewStringSerializer(username)); err != nil {
		return identity.User{}, err
	}
	if err := expectAck(bs); err != nil {
		return identity.User{}, err
	}

	if err := wire.WriteBlock[[]byte](bs, serialize.NewByteSliceSerializer(password)); err != nil {
		return identity.User{}, err
	}
	if err := expectAck(bs); err != nil {
		return identity.User{}, err
	}

	v, err := readVerdict(bs)
	if err != nil {
		return identity.User{}, err
	}
	if !v.Ok {
		return identity.User{}, fmt.Errorf("login: %s", v.ErrValue)
	}
	return identity.User{Name: username}, nil
}

func expectAck(bs *wire.BlockStream) error {
	ok, err := readAck(bs)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	reason, err := readReason(bs)
	if err != nil {
		return err
	}
	return fmt.Errorf("login: %s", reason)
}

// Verifier resolves the collected (mode, username, password) into a
// User. ok is false iff the credentials are invalid (unknown user /
// wrong password) or the requested name is already taken; reason is
// the human-readable explanation carried in the final verdict block.
type Verifier func(newUser bool, username string, password []byte) (user identity.User, ok bool, reason string, err error)

// ServerLogin drives the login sequence as the responder. For an
// existing-user login, the password-step ack (step 6) is the database
// comparison itself: a wrong password or unknown username is terminal
// right there, matching the step table's "compared... via database" ack
// text and the unknown-user-receives-Err-at-step-6 requirement. For a
// new-user request, the password-step ack only checks the password is
// non-empty; hashing, the actual creation (and any username-taken
// conflict) are resolved at
// the final verdict, matching the table's "hashed (new user)" ack text.
func ServerLogin(bs *wire.BlockStream, verify Verifier) (identity.User, error) {
	newUser, err := readModeOrReject(bs)
	if err != nil {
		return identity.User{}, err
	}

	username, err := readStringOrReject(bs, func(s string) (bool, string) {
		if s == "" {
			return false, "username must not be empty"
		}
		return true, ""
	})
	if err != nil {
		return identity.User{}, err
	}

	password, loggedIn, verified, err := readPasswordOrReject(bs, newUser, username, verify)
	if err != nil {
		return identity.User{}, err
	}
	if verified {
		if err := writeVerdict(bs, ""); err != nil {
			return identity.User{}, err
		}
		return loggedIn, nil
	}

	user, ok, reason, err := verify(newUser, username, password)
	if err != nil {
		_ = writeVerdict(bs, "internal error")
		return identity.User{}, err
	}
	if !ok {
		if reason == "" {
			reason = "invalid credentials"
		}
		if err := writeVerdict(bs, reason); err != nil {
			return identity.User{}, err
		}
		return identity.User{}, fmt.Errorf("login: %s", reason)
	}
	if err := writeVerdict(bs, ""); err != nil {
		return identity.User{}, err
	}
	return user, nil
}

func readModeOrReject(bs *wire.BlockStream) (bool, error) {
	newUser, err := readMode(bs)
	if err != nil {
		_ = writeAck(bs, false)
		_ = writeReason(bs, "malformed mode byte")
		return false, err
	}
	if err := writeAck(bs, true); err != nil {
		return false, err
	}
	return newUser, nil
}

func readStringOrReject(bs *wire.BlockStream, validate func(string) (bool, string)) (string, error) {
	s, err := wire.ReadBlock[string](bs, func() serialize.Deserializer[string] { return serialize.NewStringDeserializer() })
	if err != nil {
		_ = writeAck(bs, false)
		_ = writeReason(bs, "malformed username")
		return "", err
	}
	if ok, reason := validate(s); !ok {
		if err := writeAck(bs, false); err != nil {
			return "", err
		}
		_ = writeReason(bs, reason)
		return "", fmt.Errorf("login: %s", reason)
	}
	if err := writeAck(bs, true); err != nil {
		return "", err
	}
	return s, nil
}

// readPasswordOrReject reads the password block and writes its ack. For
// an existing-user login it also runs verify here, since that ack *is*
// the database comparison; the returned User and verified=true signal
// that the final verdict can be written directly without a second call
// to verify. For a new-user request it only checks the password is
// non-empty; verified is always false and creation happens later.
func readPasswordOrReject(bs *wire.BlockStream, newUser bool, username string, verify Verifier) ([]byte, identity.User, bool, error) {
	p, err := wire.ReadBlock[[]byte](bs, func() serialize.Deserializer[[]byte] { return serialize.NewByteSliceDeserializer() })
	if err != nil {
		_ = writeAck(bs, false)
		_ = writeReason(bs, "malformed password")
		return nil, identity.User{}, false, err
	}
	if len(p) == 0 {
		if err := writeAck(bs, false); err != nil {
			return nil, identity.User{}, false, err
		}
		_ = writeReason(bs, "password must not be empty")
		return nil, identity.User{}, false, fmt.Errorf("login: password must not be empty")
	}

	if newUser {
		if err := writeAck(bs, true); err != nil {
			return nil, identity.User{}, false, err
		}
		return p, identity.User{}, false, nil
	}

	user, ok, reason, err := verify(newUser, username, p)
	if err != nil {
		_ = writeAck(bs, false)
		_ = writeReason(bs, "internal error")
		return nil, identity.User{}, false, err
	}
	if !ok {
		if reason == "" {
			reason = "invalid credentials"
		}
		if err := writeAck(bs, false); err != nil {
			return nil, identity.User{}, false, err
		}
		_ = writeReason(bs, reason)
		return nil, identity.User{}, false, fmt.Errorf("login: %s", reason)
	}
	if err := writeAck(bs, true); err != nil {
		return nil, identity.User{}, false, err
	}
	return p, user, true, nil
}
