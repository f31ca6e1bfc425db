// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// HASHING CONSTANTS
// =============================================================================

const (
	// PinSalt is the fixed purpose salt appended to PINs.
	PinSalt = "whitespc_salt"

	// RecoverySalt is the fixed purpose salt appended to recovery answers.
	RecoverySalt = "whitespc_recovery_salt"

	// DefaultPBKDF2Iterations follows the OWASP 2023 guidance for PBKDF2-HMAC-SHA256.
	DefaultPBKDF2Iterations = 600000

	// MinPBKDF2Iterations is the lowest iteration count accepted from config.
	MinPBKDF2Iterations = 1000

	pbkdf2SaltLen = 16
	pbkdf2KeyLen  = 32
	pbkdf2ID      = "pbkdf2-sha256"
)

// HashScheme selects how new hashes are written. Verification always
// accepts every scheme.
type HashScheme string

const (
	// SchemePBKDF2 writes PBKDF2-HMAC-SHA256 hashes with a random salt.
	SchemePBKDF2 HashScheme = "pbkdf2"

	// SchemeLegacy writes the fixed-salt SHA-256 format read by older installs.
	SchemeLegacy HashScheme = "legacy"
)

// ParseHashScheme parses a config value.
func ParseHashScheme(s string) (HashScheme, error) {
	switch HashScheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemePBKDF2, "":
		return SchemePBKDF2, nil
	case SchemeLegacy:
		return SchemeLegacy, nil
	default:
		return "", fmt.Errorf("unknown hash scheme %q (valid: pbkdf2, legacy)", s)
	}
}

// =============================================================================
// HASHER
// =============================================================================

// Hasher produces and verifies credential hashes.
type Hasher struct {
	scheme     HashScheme
	iterations int
	rand       io.Reader
}

// NewHasher creates a hasher writing the given scheme. iterations below
// MinPBKDF2Iterations fall back to DefaultPBKDF2Iterations.
func NewHasher(scheme HashScheme, iterations int) *Hasher {
	if scheme == "" {
		scheme = SchemePBKDF2
	}
	if iterations < MinPBKDF2Iterations {
		iterations = DefaultPBKDF2Iterations
	}
	return &Hasher{
		scheme:     scheme,
		iterations: iterations,
		rand:       rand.Reader,
	}
}

// DefaultHasher writes PBKDF2 hashes with DefaultPBKDF2Iterations.
func DefaultHasher() *Hasher {
	return NewHasher(SchemePBKDF2, DefaultPBKDF2Iterations)
}

// Scheme returns the scheme used for new hashes.
func (h *Hasher) Scheme() HashScheme {
	return h.scheme
}

// Hash hashes secret for the purpose identified by salt.
func (h *Hasher) Hash(secret, salt string) (string, error) {
	if h.scheme == SchemeLegacy {
		return LegacyHash(secret, salt), nil
	}

	random := make([]byte, pbkdf2SaltLen)
	if _, err := io.ReadFull(h.rand, random); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(secret+salt), random, h.iterations, pbkdf2KeyLen, sha256.New)

	return fmt.Sprintf("$%s$i=%d$%s$%s", pbkdf2ID, h.iterations,
		base64.RawStdEncoding.EncodeToString(random),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify reports whether secret matches stored. needsUpgrade is true when
// the match was against a hash weaker than what Hash would write now.
func (h *Hasher) Verify(secret, salt, stored string) (ok, needsUpgrade bool) {
	if stored == "" {
		return false, false
	}

	if !IsPBKDF2Hash(stored) {
		ok = constantTimeEqual(LegacyHash(secret, salt), stored)
		return ok, ok && h.scheme != SchemeLegacy
	}

	iterations, random, key, err := parsePBKDF2(stored)
	if err != nil {
		return false, false
	}
	got := pbkdf2.Key([]byte(secret+salt), random, iterations, len(key), sha256.New)
	ok = subtle.ConstantTimeCompare(got, key) == 1
	return ok, ok && h.scheme == SchemePBKDF2 && iterations < h.iterations
}

// =============================================================================
// FORMATS
// =============================================================================

// LegacyHash is SHA-256 over secret+salt, standard base64 encoded.
func LegacyHash(secret, salt string) string {
	sum := sha256.Sum256([]byte(secret + salt))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// IsPBKDF2Hash reports whether stored uses the PBKDF2 format.
func IsPBKDF2Hash(stored string) bool {
	return strings.HasPrefix(stored, "$"+pbkdf2ID+"$")
}

// parsePBKDF2 splits "$pbkdf2-sha256$i=N$salt$key".
func parsePBKDF2(stored string) (iterations int, salt, key []byte, err error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 5 || parts[1] != pbkdf2ID || !strings.HasPrefix(parts[2], "i=") {
		return 0, nil, nil, fmt.Errorf("malformed pbkdf2 hash")
	}

	iterations, err = strconv.Atoi(strings.TrimPrefix(parts[2], "i="))
	if err != nil || iterations <= 0 {
		return 0, nil, nil, fmt.Errorf("malformed pbkdf2 iterations")
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[3]); err != nil {
		return 0, nil, nil, fmt.Errorf("malformed pbkdf2 salt: %w", err)
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(key) == 0 {
		return 0, nil, nil, fmt.Errorf("malformed pbkdf2 key")
	}
	return iterations, salt, key, nil
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// NormalizeAnswer canonicalizes a recovery answer so that matching ignores
// surrounding whitespace, case and Unicode compatibility forms.
func NormalizeAnswer(answer string) string {
	s := strings.TrimSpace(norm.NFKC.String(answer))
	return cases.Fold().String(s)
}

// legacyNormalizeAnswer is the lower-case-and-trim form legacy answer hashes
// were written with. It differs from NormalizeAnswer for answers such as
// "Straße", which NormalizeAnswer folds to "strasse".
func legacyNormalizeAnswer(answer string) string {
	return strings.TrimSpace(strings.ToLower(answer))
}
