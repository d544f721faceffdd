// Package store is the reference file-backed DataBase implementation.
// spec.md §1 treats the persistent user store as an external
// collaborator specified only by the db.DataBase interface; a runnable
// server still needs one concrete implementation to boot, so this one
// is built the way the teacher persists structured records: CBOR-coded
// values (as server/cborplugin and talek/frontend/main.go encode their
// wire structs) in a single go.etcd.io/bbolt bucket (the teacher's
// embedded-KV dependency).
package store

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/catchat/chat/identity"
)

var usersBucket = []byte("users")

// record is the on-disk shape of one user: the password hash plus
// whatever identity fields exist (today, just the name, which is also
// the bucket key, kept here too so a record is self-describing).
type record struct {
	Name         string
	PasswordHash []byte
}

// BoltStore implements db.DataBase over a bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a bbolt database at path and
// ensures the users bucket exists.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(usersBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) get(name string) (record, bool, error) {
	var rec record
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(usersBucket).Get([]byte(name))
		if raw == nil {
			return nil
		}
		found = true
		return cbor.Unmarshal(raw, &rec)
	})
	return rec, found, err
}

// LogIn implements db.DataBase.
func (s *BoltStore) LogIn(_ context.Context, name string, password []byte) (identity.User, bool, error) {
	rec, found, err := s.get(name)
	if err != nil || !found {
		return identity.User{}, false, err
	}
	if !identity.PasswordRecordFromBytes(rec.PasswordHash).Verify(password) {
		return identity.User{}, false, nil
	}
	return identity.User{Name: rec.Name}, true, nil
}

// CreateUser implements db.DataBase.
func (s *BoltStore) CreateUser(_ context.Context, name string, record_ identity.PasswordRecord) (identity.User, bool, error) {
	var created bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		if b.Get([]byte(name)) != nil {
			return nil
		}
		raw, err := cbor.Marshal(record{Name: name, PasswordHash: record_.Bytes()})
		if err != nil {
			return err
		}
		if err := b.Put([]byte(name), raw); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return identity.User{}, false, err
	}
	if !created {
		return identity.User{}, false, nil
	}
	return identity.User{Name: name}, true, nil
}

// UserFromUsername implements db.DataBase.
func (s *BoltStore) UserFromUsername(_ context.Context, name string) (identity.User, bool, error) {
	rec, found, err := s.get(name)
	if err != nil || !found {
		return identity.User{}, false, err
	}
	return identity.User{Name: rec.Name}, true, nil
}
