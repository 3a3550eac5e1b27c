package util

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

type Argon2idParams struct {
	Time        uint32 `json:"time"`
	MemoryKiB   uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
	KeyLen      uint32 `json:"key_len"`
}

func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
	}
}

// PasswordHash is a salted argon2id digest of a password.
type PasswordHash struct {
	Params Argon2idParams `json:"params"`
	Salt   []byte         `json:"salt"`
	Key    []byte         `json:"key"`
}

const saltLen = 16

func HashPassword(password string, params Argon2idParams) (PasswordHash, error) {
	if params.KeyLen == 0 {
		return PasswordHash{}, fmt.Errorf("argon2id key length must be positive")
	}
	salt, err := RandomBytes(saltLen)
	if err != nil {
		return PasswordHash{}, err
	}
	key := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen)
	return PasswordHash{Params: params, Salt: salt, Key: key}, nil
}

// Matches reports whether password hashes to h in constant time.
func (h PasswordHash) Matches(password string) bool {
	if len(h.Key) == 0 {
		return false
	}
	p := h.Params
	key := argon2.IDKey([]byte(password), h.Salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	defer WipeBytes(key)
	return subtle.ConstantTimeCompare(key, h.Key) == 1
}
