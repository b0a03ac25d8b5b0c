package pawn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetenvOrDefault(t *testing.T) {
	t.Setenv("PAWN_TEST_STRING", "  value ")
	t.Setenv("PAWN_TEST_BLANK", "   ")

	assert.Equal(t, "value", GetenvOrDefault("PAWN_TEST_STRING", "def"))
	assert.Equal(t, "def", GetenvOrDefault("PAWN_TEST_BLANK", "def"))
	assert.Equal(t, "def", GetenvOrDefault("PAWN_TEST_MISSING", "def"))
}

func TestGetenvBoolOrDefault(t *testing.T) {
	t.Setenv("PAWN_TEST_BOOL", "true")
	t.Setenv("PAWN_TEST_BOOL_BAD", "maybe")

	assert.True(t, GetenvBoolOrDefault("PAWN_TEST_BOOL", false))
	assert.True(t, GetenvBoolOrDefault("PAWN_TEST_BOOL_BAD", true))
	assert.False(t, GetenvBoolOrDefault("PAWN_TEST_BOOL_MISSING", false))
}

func TestGetenvIntOrDefault(t *testing.T) {
	t.Setenv("PAWN_TEST_INT", "42")
	t.Setenv("PAWN_TEST_INT_BAD", "4x2")

	assert.Equal(t, int64(42), GetenvIntOrDefault("PAWN_TEST_INT", 7))
	assert.Equal(t, int64(7), GetenvIntOrDefault("PAWN_TEST_INT_BAD", 7))
}

func TestGetenvDurationOrDefault(t *testing.T) {
	t.Setenv("PAWN_TEST_DURATION", "90s")
	t.Setenv("PAWN_TEST_DURATION_NEG", "-5s")
	t.Setenv("PAWN_TEST_DURATION_BAD", "soon")

	assert.Equal(t, 90*time.Second, GetenvDurationOrDefault("PAWN_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetenvDurationOrDefault("PAWN_TEST_DURATION_NEG", time.Second))
	assert.Equal(t, time.Second, GetenvDurationOrDefault("PAWN_TEST_DURATION_BAD", time.Second))
}
