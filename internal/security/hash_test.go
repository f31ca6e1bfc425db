// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLegacyHashFormat(t *testing.T) {
	h := LegacyHash("1234", PinSalt)
	require.Len(t, h, 44)
	require.Equal(t, h, LegacyHash("1234", PinSalt))
	require.NotEqual(t, h, LegacyHash("1234", RecoverySalt), "purpose salts must differ")
	require.False(t, IsPBKDF2Hash(h))
}

func TestHasher_PBKDF2RoundTrip(t *testing.T) {
	h := NewHasher(SchemePBKDF2, testIterations)

	a, err := h.Hash("1234", PinSalt)
	require.NoError(t, err)
	b, err := h.Hash("1234", PinSalt)
	require.NoError(t, err)

	require.True(t, IsPBKDF2Hash(a))
	require.True(t, strings.HasPrefix(a, "$pbkdf2-sha256$i=1000$"))
	require.NotEqual(t, a, b, "each hash gets its own random salt")

	for _, stored := range []string{a, b} {
		ok, upgrade := h.Verify("1234", PinSalt, stored)
		require.True(t, ok)
		require.False(t, upgrade)

		ok, _ = h.Verify("1235", PinSalt, stored)
		require.False(t, ok)

		ok, _ = h.Verify("1234", RecoverySalt, stored)
		require.False(t, ok)
	}
}

func TestHasher_VerifyLegacy(t *testing.T) {
	stored := LegacyHash("1234", PinSalt)

	ok, upgrade := NewHasher(SchemePBKDF2, testIterations).Verify("1234", PinSalt, stored)
	require.True(t, ok)
	require.True(t, upgrade)

	ok, upgrade = NewHasher(SchemeLegacy, 0).Verify("1234", PinSalt, stored)
	require.True(t, ok)
	require.False(t, upgrade)

	ok, upgrade = NewHasher(SchemePBKDF2, testIterations).Verify("4321", PinSalt, stored)
	require.False(t, ok)
	require.False(t, upgrade)
}

func TestHasher_UpgradeOnHigherIterations(t *testing.T) {
	weak := NewHasher(SchemePBKDF2, testIterations)
	stored, err := weak.Hash("1234", PinSalt)
	require.NoError(t, err)

	ok, upgrade := NewHasher(SchemePBKDF2, 2*testIterations).Verify("1234", PinSalt, stored)
	require.True(t, ok)
	require.True(t, upgrade)
}

func TestHasher_MalformedHashes(t *testing.T) {
	h := NewHasher(SchemePBKDF2, testIterations)
	for _, stored := range []string{
		"",
		"$pbkdf2-sha256$",
		"$pbkdf2-sha256$i=abc$c2FsdA$a2V5",
		"$pbkdf2-sha256$i=1000$!!!$a2V5",
		"$pbkdf2-sha256$i=1000$c2FsdA$",
		"$pbkdf2-sha256$x=1000$c2FsdA$a2V5",
	} {
		ok, upgrade := h.Verify("1234", PinSalt, stored)
		require.False(t, ok, stored)
		require.False(t, upgrade, stored)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestHasher_RandomFailure(t *testing.T) {
	h := NewHasher(SchemePBKDF2, testIterations)
	h.rand = failingReader{}
	_, err := h.Hash("1234", PinSalt)
	require.Error(t, err)
}

func TestNewHasherDefaults(t *testing.T) {
	h := NewHasher("", 10)
	require.Equal(t, SchemePBKDF2, h.Scheme())
	require.Equal(t, DefaultPBKDF2Iterations, h.iterations)
}

func TestParseHashScheme(t *testing.T) {
	for in, want := range map[string]HashScheme{
		"":        SchemePBKDF2,
		"pbkdf2":  SchemePBKDF2,
		" PBKDF2": SchemePBKDF2,
		"legacy":  SchemeLegacy,
	} {
		got, err := ParseHashScheme(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseHashScheme("bcrypt")
	require.Error(t, err)
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rex", "rex"},
		{"  rex \t", "rex"},
		{"PARIS", "paris"},
		{"ＢＬＵＥ", "blue"},
		{"   ", ""},
		{"New York", "new york"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, NormalizeAnswer(tc.in), tc.in)
	}
}
