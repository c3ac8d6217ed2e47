package archive

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// Magic prefixes every sealed archive.
var Magic = []byte("AKE1")

// ErrWrongPassword is returned when an envelope cannot be opened.
var ErrWrongPassword = errors.New("wrong password or corrupted archive")

const (
	saltSize  = 16
	keySize   = chacha20poly1305.KeySize
	nonceSize = chacha20poly1305.NonceSizeX

	headerSize = 4 + saltSize + nonceSize
)

// KDFParams are the Argon2id cost parameters.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDF follows the RFC 9106 second recommended option.
var DefaultKDF = KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}

// Envelope seals archives as: magic | salt | nonce | XChaCha20-Poly1305(zip).
// The header is bound as additional data.
type Envelope struct {
	KDF KDFParams
}

var _ ports.Envelope = (*Envelope)(nil)

// NewEnvelope creates an envelope with the default KDF parameters.
func NewEnvelope() *Envelope {
	return &Envelope{KDF: DefaultKDF}
}

// IsSealed reports whether data starts with the envelope magic.
func (e *Envelope) IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// Seal encrypts data with a key derived from password.
func (e *Envelope) Seal(data []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("empty password")
	}
	header := make([]byte, headerSize)
	copy(header, Magic)
	if _, err := rand.Read(header[len(Magic):]); err != nil {
		return nil, fmt.Errorf("generate salt and nonce: %w", err)
	}
	salt := header[len(Magic) : len(Magic)+saltSize]
	nonce := header[len(Magic)+saltSize:]

	aead, err := chacha20poly1305.NewX(e.key(password, salt))
	if err != nil {
		return nil, err
	}
	return aead.Seal(header, nonce, data, header), nil
}

// Open decrypts a sealed archive.
func (e *Envelope) Open(data []byte, password string) ([]byte, error) {
	if !e.IsSealed(data) {
		return nil, errors.New("not a sealed archive")
	}
	if len(data) < headerSize+chacha20poly1305.Overhead {
		return nil, errors.New("sealed archive truncated")
	}
	header := data[:headerSize]
	salt := header[len(Magic) : len(Magic)+saltSize]
	nonce := header[len(Magic)+saltSize:]

	aead, err := chacha20poly1305.NewX(e.key(password, salt))
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, data[headerSize:], header)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plain, nil
}

func (e *Envelope) key(password string, salt []byte) []byte {
	p := e.KDF
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		p = DefaultKDF
	}
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, keySize)
}
