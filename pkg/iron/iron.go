// Package iron seals values into tamper-proof, encrypted strings compatible
// with the Fe26.2 iron token format.
//
// A sealed string has eight '*' separated parts:
//
//	Fe26.2*<password id>*<encryption salt>*<iv>*<ciphertext>*<expiration>*<hmac salt>*<hmac>
//
// The value is JSON encoded, encrypted with AES-256-CBC, and the whole token
// is signed with HMAC-SHA256. Both keys are derived from the password with
// PBKDF2-SHA1 using a fresh random salt per token.
package iron

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MacPrefix identifies the token format version.
	MacPrefix = "Fe26.2"

	// MinPasswordLength is the shortest password accepted.
	MinPasswordLength = 32

	saltBits   = 256
	keyBytes   = 32
	ivBytes    = aes.BlockSize
	iterations = 1

	defaultSkew = 60 * time.Second
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrMalformed        = errors.New("incorrect number of sealed components")
	ErrPrefix           = errors.New("wrong mac prefix")
	ErrExpired          = errors.New("expired seal")
	ErrBadHMAC          = errors.New("bad hmac value")
	ErrDecrypt          = errors.New("failed to decrypt sealed value")
)

var encoding = base64.RawURLEncoding

// Option configures a Sealer.
type Option func(*Sealer)

// WithTTL sets the lifetime of sealed tokens. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Sealer) {
		s.ttl = ttl
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sealer) {
		s.now = now
	}
}

// WithSkew sets the tolerance applied when checking expiration.
func WithSkew(skew time.Duration) Option {
	return func(s *Sealer) {
		s.skew = skew
	}
}

// Sealer seals and unseals values with a single password.
type Sealer struct {
	password []byte
	ttl      time.Duration
	skew     time.Duration
	now      func() time.Time
}

// New creates a Sealer. The password must be at least MinPasswordLength characters.
func New(password string, opts ...Option) (*Sealer, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	s := &Sealer{
		password: []byte(password),
		skew:     defaultSkew,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Seal encodes v as JSON, encrypts and signs it.
func (s *Sealer) Seal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}

	salt, err := randomSalt()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivBytes)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	ciphertext, err := encrypt(s.deriveKey(salt), iv, data)
	if err != nil {
		return "", err
	}

	expiration := ""
	if s.ttl > 0 {
		expiration = strconv.FormatInt(s.now().Add(s.ttl).UnixMilli(), 10)
	}

	base := strings.Join([]string{
		MacPrefix,
		"",
		salt,
		encoding.EncodeToString(iv),
		encoding.EncodeToString(ciphertext),
		expiration,
	}, "*")

	macSalt, err := randomSalt()
	if err != nil {
		return "", err
	}

	return base + "*" + macSalt + "*" + s.sign(macSalt, base), nil
}

// Unseal verifies and decrypts a sealed token, decoding its JSON value into v.
func (s *Sealer) Unseal(sealed string, v any) error {
	parts := strings.Split(sealed, "*")
	if len(parts) != 8 {
		return ErrMalformed
	}

	prefix, salt, ivB64, cipherB64, expiration, macSalt, mac := parts[0], parts[2], parts[3], parts[4], parts[5], parts[6], parts[7]
	if prefix != MacPrefix {
		return ErrPrefix
	}

	if expiration != "" {
		ms, err := strconv.ParseInt(expiration, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid expiration: %w", err)
		}
		if !s.now().Add(-s.skew).Before(time.UnixMilli(ms)) {
			return ErrExpired
		}
	}

	base := strings.Join(parts[:6], "*")
	if !hmac.Equal([]byte(s.sign(macSalt, base)), []byte(mac)) {
		return ErrBadHMAC
	}

	iv, err := encoding.DecodeString(ivB64)
	if err != nil {
		return fmt.Errorf("decode iv: %w", err)
	}
	ciphertext, err := encoding.DecodeString(cipherB64)
	if err != nil {
		return fmt.Errorf("decode ciphertext: %w", err)
	}

	data, err := decrypt(s.deriveKey(salt), iv, ciphertext)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

// deriveKey stretches the password with the hex salt string as PBKDF2 salt.
func (s *Sealer) deriveKey(salt string) []byte {
	return pbkdf2.Key(s.password, []byte(salt), iterations, keyBytes, sha1.New)
}

func (s *Sealer) sign(salt, base string) string {
	mac := hmac.New(sha256.New, s.deriveKey(salt))
	mac.Write([]byte(base))
	return encoding.EncodeToString(mac.Sum(nil))
}

func randomSalt() (string, error) {
	b := make([]byte, saltBits/8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func encrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	padding := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append(bytes.Clone(plaintext), bytes.Repeat([]byte{byte(padding)}, padding)...)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if len(iv) != aes.BlockSize || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrDecrypt
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)

	padding := int(out[len(out)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(out) {
		return nil, ErrDecrypt
	}
	for _, b := range out[len(out)-padding:] {
		if int(b) != padding {
			return nil, ErrDecrypt
		}
	}
	return out[:len(out)-padding], nil
}
