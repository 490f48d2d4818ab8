package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/stockroom-backend/pkg/config"
)

// ErrInvalidHash signals a malformed Argon2id hash string.
var ErrInvalidHash = errors.New("invalid argon2id hash")

// ArgonParams are embedded into every encoded hash so verification does not
// depend on the current config.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// encoded is the PHC form: $argon2id$v=19$m=..,t=..,p=..$salt$key
type encoded struct {
	params ArgonParams
	salt   []byte
	key    []byte
}

func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	params := ParamsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, params.KeyLen)
	return encoded{params: params, salt: salt, key: key}.String(), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func VerifyPassword(password, hash string) (bool, error) {
	enc, err := parseEncoded(hash)
	if err != nil {
		return false, err
	}
	p := enc.params
	computed := argon2.IDKey([]byte(password), enc.salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return subtle.ConstantTimeCompare(enc.key, computed) == 1, nil
}

// NeedsRehash reports whether hash was produced with parameters other than
// the ones cfg currently asks for.
func NeedsRehash(hash string, cfg config.PasswordConfig) bool {
	enc, err := parseEncoded(hash)
	if err != nil {
		return true
	}
	return enc.params != ParamsFromConfig(cfg)
}

// ParamsFromConfig clamps the configured cost into safe bounds.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(clamp(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

func (e encoded) String() string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, e.params.Memory, e.params.Time, e.params.Parallelism,
		b64.EncodeToString(e.salt), b64.EncodeToString(e.key))
}

func parseEncoded(hash string) (encoded, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return encoded{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return encoded{}, ErrInvalidHash
	}

	var enc encoded
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &enc.params.Memory, &enc.params.Time, &enc.params.Parallelism); err != nil {
		return encoded{}, ErrInvalidHash
	}

	var err error
	if enc.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(enc.salt) == 0 {
		return encoded{}, ErrInvalidHash
	}
	if enc.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(enc.key) == 0 {
		return encoded{}, ErrInvalidHash
	}
	enc.params.SaltLen = uint32(len(enc.salt))
	enc.params.KeyLen = uint32(len(enc.key))
	return enc, nil
}

func clamp(value, lo, hi int) int {
	return min(max(value, lo), hi)
}
