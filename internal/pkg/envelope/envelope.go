package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
)

const (
	keyLen       = 32
	nonceSize    = 12
	tagSize      = 16
	maxPlainLen  = 1000
	segmentSep   = ":"
	segmentCount = 3
)

var (
	nonceWidth = base64.StdEncoding.EncodedLen(nonceSize)
	tagWidth   = base64.StdEncoding.EncodedLen(tagSize)

	errSegments = errors.New("envelope: malformed segment count")
	errEncoding = errors.New("envelope: malformed segment encoding")
	errOpen     = errors.New("envelope: authentication failed")
	errEmpty    = errors.New("envelope: empty plaintext")
)

// Sealer encrypts and decrypts secret strings.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) (string, error)
}

// Cipher implements Sealer with AES-256-GCM and a static key.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// New builds a Cipher from raw key material. Anything other than 32 bytes is a
// configuration error.
func New(key []byte) (*Cipher, error) {
	if len(key) != keyLen {
		return nil, goerror.NewConfiguration(fmt.Sprintf("encryption key must be %d bytes, got %d", keyLen, len(key)))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, goerror.NewConfiguration("encryption key rejected: " + err.Error())
	}

	aead, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, goerror.NewConfiguration("gcm init failed: " + err.Error())
	}

	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// NewFromBase64 decodes a standard base64 key and calls New.
func NewFromBase64(encoded string) (*Cipher, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, goerror.NewConfiguration("encryption key is not set")
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, goerror.NewConfiguration("encryption key is not valid base64")
	}

	return New(key)
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", goerror.NewValidation("Secret must not be empty")
	}
	if strings.TrimSpace(plaintext) != plaintext {
		return "", goerror.NewValidation("Secret must not have leading or trailing whitespace")
	}
	if utf8.RuneCountInString(plaintext) > maxPlainLen {
		return "", goerror.NewValidation(fmt.Sprintf("Secret must be at most %d characters", maxPlainLen))
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", goerror.NewServer(fmt.Errorf("envelope: nonce generation failed: %w", err))
	}

	// Seal output is ciphertext followed by the tag.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ct),
	}, segmentSep), nil
}

// Decrypt opens an envelope produced by Encrypt.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, segmentSep)
	if len(parts) != segmentCount {
		return "", goerror.NewCrypto(errSegments)
	}
	if len(parts[0]) != nonceWidth || len(parts[1]) != tagWidth {
		return "", goerror.NewCrypto(errEncoding)
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", goerror.NewCrypto(errEncoding)
	}
	tag, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", goerror.NewCrypto(errEncoding)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", goerror.NewCrypto(errEncoding)
	}

	plain, err := c.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", goerror.NewCrypto(errOpen)
	}
	if len(plain) == 0 {
		return "", goerror.NewCrypto(errEmpty)
	}

	return string(plain), nil
}
