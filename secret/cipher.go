package secret

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// KeyLength is the length of a derived key: the hex SHA-256 of the token.
const KeyLength = sha256.Size * 2

// CiphertextPrefix is how every envelope produced by PassphraseCipher starts:
// the base64 form of the OpenSSL "Salted__" magic.
const CiphertextPrefix = "U2FsdGVkX1"

const (
	saltedMagic = "Salted__"
	saltSize    = 8

	// DefaultScryptCost is the scrypt N parameter used by NewPassphraseCipher.
	DefaultScryptCost = 1 << 12
)

// Sentinel errors for encryption operations.
var (
	ErrNoSessionKey   = errors.New("secret: no session token found")
	ErrSessionExpired = errors.New("secret: session token expired")
	ErrDecrypt        = errors.New("secret: decryption failed")
	ErrNotCiphertext  = errors.New("secret: value is not ciphertext")
)

// Key is a passphrase derived from a session token.
type Key string

// DeriveKey hashes the whole token into a fixed-length key. JWTs share
// their header, so any prefix of the token would be the same for every
// session.
func DeriveKey(token string) (Key, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoSessionKey
	}
	sum := sha256.Sum256([]byte(token))
	return Key(hex.EncodeToString(sum[:])), nil
}

// Cipher encrypts and decrypts blobs under a passphrase key.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: Decrypt must fail (not return garbage) for a wrong key or a
//     corrupted ciphertext.
type Cipher interface {
	Encrypt(key Key, plaintext []byte) (string, error)
	Decrypt(key Key, ciphertext string) ([]byte, error)
}

// IsCiphertext reports whether s has the envelope format. Values that do not
// are legacy or externally written plaintext.
func IsCiphertext(s string) bool {
	return strings.HasPrefix(s, CiphertextPrefix)
}

// PassphraseCipher seals data with XChaCha20-Poly1305 under a scrypt-stretched
// passphrase. Output is base64("Salted__" | salt | nonce | sealed).
type PassphraseCipher struct {
	cost int
}

// NewPassphraseCipher creates a cipher with DefaultScryptCost.
func NewPassphraseCipher() *PassphraseCipher {
	return &PassphraseCipher{cost: DefaultScryptCost}
}

// NewPassphraseCipherWithCost creates a cipher with a custom scrypt N (a power of two > 1).
func NewPassphraseCipherWithCost(cost int) *PassphraseCipher {
	if cost < 2 || cost&(cost-1) != 0 {
		cost = DefaultScryptCost
	}
	return &PassphraseCipher{cost: cost}
}

// Encrypt seals plaintext under key with a fresh salt and nonce.
func (c *PassphraseCipher) Encrypt(key Key, plaintext []byte) (string, error) {
	if key == "" {
		return "", ErrNoSessionKey
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("secret: read salt: %w", err)
	}
	aead, err := c.aead(key, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secret: read nonce: %w", err)
	}

	buf := make([]byte, 0, len(saltedMagic)+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	buf = append(buf, saltedMagic...)
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = aead.Seal(buf, nonce, plaintext, []byte(saltedMagic))
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decrypt opens an envelope produced by Encrypt.
func (c *PassphraseCipher) Decrypt(key Key, ciphertext string) ([]byte, error) {
	if key == "" {
		return nil, ErrNoSessionKey
	}
	if !IsCiphertext(ciphertext) {
		return nil, ErrNotCiphertext
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	header := len(saltedMagic) + saltSize
	if len(raw) < header || !bytes.Equal(raw[:len(saltedMagic)], []byte(saltedMagic)) {
		return nil, ErrDecrypt
	}

	aead, err := c.aead(key, raw[len(saltedMagic):header])
	if err != nil {
		return nil, err
	}
	body := raw[header:]
	if len(body) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrDecrypt
	}
	nonce, sealed := body[:aead.NonceSize()], body[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, []byte(saltedMagic))
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func (c *PassphraseCipher) aead(key Key, salt []byte) (cipher.AEAD, error) {
	k, err := scrypt.Key([]byte(key), salt, c.cost, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("secret: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, fmt.Errorf("secret: init cipher: %w", err)
	}
	return aead, nil
}

var _ Cipher = (*PassphraseCipher)(nil)
