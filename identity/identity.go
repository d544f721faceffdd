// Package identity holds the data model of spec.md §3: User identity
// and the opaque password record an external DataBase persists for it.
package identity

import "golang.org/x/crypto/bcrypt"

// User is an identity denoted by a UTF-8 username. Equality and hashing
// are by name; Users are immutable and freely copied once created.
type User struct {
	Name string
}

// Equal compares two Users by name.
func (u User) Equal(other User) bool { return u.Name == other.Name }

// PasswordRecord is an opaque salted-password-hash, created from a raw
// secret and verified in constant time against a candidate. spec.md §1
// declines to pin an algorithm beyond "salted password hash with
// constant-time verify"; we use bcrypt, the teacher's direct
// golang.org/x/crypto dependency.
type PasswordRecord struct {
	hash []byte
}

// NewPasswordRecord salts and hashes secret.
func NewPasswordRecord(secret []byte) (PasswordRecord, error) {
	hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	if err != nil {
		return PasswordRecord{}, err
	}
	return PasswordRecord{hash: hash}, nil
}

// Verify reports whether candidate is the secret this record was built
// from. bcrypt.CompareHashAndPassword is constant-time with respect to
// the candidate's content.
func (p PasswordRecord) Verify(candidate []byte) bool {
	return bcrypt.CompareHashAndPassword(p.hash, candidate) == nil
}

// Bytes returns the opaque hash, for persistence by the store.
func (p PasswordRecord) Bytes() []byte { return p.hash }

// PasswordRecordFromBytes reconstructs a PasswordRecord previously
// persisted via Bytes.
func PasswordRecordFromBytes(b []byte) PasswordRecord { return PasswordRecord{hash: b} }
