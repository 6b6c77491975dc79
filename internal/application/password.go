package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidPasswordHash is returned when a stored hash cannot be decoded.
var ErrInvalidPasswordHash = errors.New("application: invalid password hash")

// Argon2idParams tunes the argon2id key derivation used for identity passwords.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams is used for every password set through the user directory.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// NewArgon2idHasher returns a PasswordHasher bound to params.
func NewArgon2idHasher(params Argon2idParams) PasswordHasher {
	return func(password string) (string, error) {
		return CreatePasswordHash(password, params)
	}
}

// CreatePasswordHash encodes password in the PHC form
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	if password == "" {
		return "", errors.New("application: empty password")
	}
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("application: read salt: %w", err)
	}

	stored := passwordHash{
		params: params,
		salt:   salt,
		key:    argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength),
	}
	return stored.encode(), nil
}

// VerifyPassword checks password against an encoded hash. A mismatch yields
// ErrInvalidCredentials; an undecodable hash yields ErrInvalidPasswordHash.
func VerifyPassword(encoded, password string) error {
	stored, err := decodePasswordHash(encoded)
	if err != nil {
		return err
	}
	candidate := argon2.IDKey([]byte(password), stored.salt, stored.params.Iterations, stored.params.Memory, stored.params.Parallelism, stored.params.KeyLength)
	if subtle.ConstantTimeCompare(stored.key, candidate) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

type passwordHash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (h passwordHash) encode() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key),
	)
}

func decodePasswordHash(encoded string) (passwordHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return passwordHash{}, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return passwordHash{}, fmt.Errorf("%w: version %q", ErrInvalidPasswordHash, parts[2])
	}

	var h passwordHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Parallelism); err != nil {
		return passwordHash{}, fmt.Errorf("%w: params: %v", ErrInvalidPasswordHash, err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return passwordHash{}, fmt.Errorf("%w: salt: %v", ErrInvalidPasswordHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return passwordHash{}, fmt.Errorf("%w: key", ErrInvalidPasswordHash)
	}
	h.params.SaltLength = uint32(len(h.salt))
	h.params.KeyLength = uint32(len(h.key))
	return h, nil
}
