package checkpoint

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

// ErrSealBroken reports a sealed snapshot that failed authentication:
// tampered payload, wrong key, or truncated record.
var ErrSealBroken = errors.New("checkpoint: seal broken")

// Codec converts snapshots to and from their stored byte form.
type Codec interface {
	Encode(snap *model.Snapshot) ([]byte, error)
	Decode(data []byte) (*model.Snapshot, error)
}

type jsonCodec struct{}

// JSON returns the plain JSON codec.
func JSON() Codec {
	return jsonCodec{}
}

func (jsonCodec) Encode(snap *model.Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func (jsonCodec) Decode(data []byte) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

type sealedCodec struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// Sealed returns a codec that encrypts snapshots with XChaCha20-Poly1305,
// keyed from secret. A candidate editing the stored record (for example to
// inflate remaining time) makes it unreadable rather than accepted.
func Sealed(secret string) (Codec, error) {
	key := sha256.Sum256([]byte(secret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("init seal: %w", err)
	}
	return &sealedCodec{aead: aead}, nil
}

func (c *sealedCodec) Encode(snap *model.Snapshot) ([]byte, error) {
	plain, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("seal nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}

func (c *sealedCodec) Decode(data []byte) (*model.Snapshot, error) {
	if len(data) < c.aead.NonceSize() {
		return nil, ErrSealBroken
	}
	nonce, box := data[:c.aead.NonceSize()], data[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, ErrSealBroken
	}
	var snap model.Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return nil, ErrSealBroken
	}
	return &snap, nil
}
