// Package wire is the BlockStream of spec.md §4.2: an ephemeral X25519
// handshake followed by fixed-size AEAD-framed, length-delimited,
// streaming-serialized blocks over a reliable byte stream.
//
// Grounded on client2/connection.go's connection/worker shape and
// map/client/stream.go's and sockatz/common/conn.go's per-frame
// framing style; see DESIGN.md and SPEC_FULL.md §2 for the AEAD
// (gitlab.com/yawning/aez.git) and key-custody (awnumar/memguard)
// choices.
package wire

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"gitlab.com/yawning/aez.git"
	"golang.org/x/crypto/curve25519"

	"github.com/catchat/chat/chaterr"
)

const (
	// PublicKeySize is the length in bytes of the X25519 public key
	// exchanged during the handshake.
	PublicKeySize = 32

	// NonceSize is the length in bytes of the per-frame nonce.
	NonceSize = 12

	// TagSize is the length in bytes of the AEAD authentication tag
	// AEZ appends to each frame, matching the "+16" of spec.md §3.
	TagSize = 16

	// DefaultFrameSize is N, the reference deployment's frame payload
	// size (spec.md §3).
	DefaultFrameSize = 1024
)

// BlockStream holds one reliable byte-stream transport and the single
// session key derived for it. It is single-writer, single-reader in the
// idiomatic path: spec.md §4.2 requires any multi-producer writer to be
// serialized externally, since the frame format does not interleave.
type BlockStream struct {
	conn io.ReadWriteCloser
	n    int
	key  *memguard.LockedBuffer
}

// New performs the handshake (generate an ephemeral keypair, exchange
// 32-byte public keys, derive the shared secret, use it directly as the
// AES-256-equivalent session key with no KDF per spec.md §9's design
// note) and returns a ready BlockStream. n is the frame payload size;
// callers should pass DefaultFrameSize absent a reason not to.
func New(conn io.ReadWriteCloser, n int) (*BlockStream, error) {
	if n <= 8 {
		return nil, fmt.Errorf("wire: frame size %d too small, need > 8", n)
	}

	var priv [32]byte
	if _, err := io.ReadFull(rand.Reader, priv[:]); err != nil {
		return nil, chaterr.Network("handshake", err)
	}
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, chaterr.Network("handshake", err)
	}
	if _, err := conn.Write(pub); err != nil {
		return nil, chaterr.Network("handshake", err)
	}

	peerPub := make([]byte, PublicKeySize)
	if _, err := io.ReadFull(conn, peerPub); err != nil {
		return nil, chaterr.Network("handshake", err)
	}

	shared, err := curve25519.X25519(priv[:], peerPub)
	if err != nil {
		return nil, chaterr.Network("handshake", err)
	}

	return &BlockStream{
		conn: conn,
		n:    n,
		key:  memguard.NewBufferFromBytes(shared),
	}, nil
}

// Close wipes the session key and closes the underlying transport.
func (bs *BlockStream) Close() error {
	bs.key.Destroy()
	return bs.conn.Close()
}

func (bs *BlockStream) sealKey() []byte { return bs.key.Bytes() }

// encryptFrame seals an n-byte plaintext frame (header + payload) into
// a NonceSize+n+TagSize byte wire frame.
func (bs *BlockStream) encryptFrame(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, chaterr.Network("frame nonce", err)
	}
	ciphertext := aez.Encrypt(bs.sealKey(), nonce, nil, TagSize, plaintext)
	out := make([]byte, 0, NonceSize+len(ciphertext))
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// decryptFrame opens a NonceSize+n+TagSize byte wire frame back into
// its n-byte plaintext.
func (bs *BlockStream) decryptFrame(wireFrame []byte) ([]byte, error) {
	if len(wireFrame) < NonceSize+TagSize {
		return nil, chaterr.Decrypt(fmt.Errorf("frame too short: %d bytes", len(wireFrame)))
	}
	nonce := wireFrame[:NonceSize]
	ciphertext := wireFrame[NonceSize:]
	plaintext, ok := aez.Decrypt(bs.sealKey(), nonce, nil, TagSize, ciphertext)
	if !ok {
		return nil, chaterr.Decrypt(fmt.Errorf("authentication failed"))
	}
	return plaintext, nil
}

// writeFrame sends one frame whose plaintext is exactly bs.n bytes.
func (bs *BlockStream) writeFrame(plaintext []byte) error {
	wireFrame, err := bs.encryptFrame(plaintext)
	if err != nil {
		return chaterr.Encrypt(err)
	}
	if _, err := bs.conn.Write(wireFrame); err != nil {
		return chaterr.Network("write frame", err)
	}
	return nil
}

// readFrame receives one frame and returns its bs.n-byte plaintext.
func (bs *BlockStream) readFrame() ([]byte, error) {
	wireFrame := make([]byte, NonceSize+bs.n+TagSize)
	if _, err := io.ReadFull(bs.conn, wireFrame); err != nil {
		return nil, chaterr.Network("read frame", err)
	}
	return bs.decryptFrame(wireFrame)
}

// FrameSize reports N, the negotiated frame payload size.
func (bs *BlockStream) FrameSize() int { return bs.n }

// WireFrameLen is the exact number of bytes every frame occupies on the
// wire for a BlockStream of frame size n: spec.md §3/§8's "12 + N + 16".
func WireFrameLen(n int) int { return NonceSize + n + TagSize }
