package studygroups_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	studygroups "github.com/studybuddy/go-studygroups"
)

func TestHashPassword(t *testing.T) {
	hash, err := studygroups.HashPassword("sup3rs3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "sup3rs3cret", hash)

	require.NoError(t, studygroups.ComparePasswordAndHash("sup3rs3cret", hash))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := studygroups.HashPassword("")
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, studygroups.ErrNoEmptyString))
}

func TestComparePasswordAndHashMismatch(t *testing.T) {
	hash, err := studygroups.HashPassword("sup3rs3cret")
	require.NoError(t, err)

	err = studygroups.ComparePasswordAndHash("wrong-password", hash)
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, studygroups.ErrMismatchedHashAndPassword))
}

func TestRandomPasswordHash(t *testing.T) {
	hash := studygroups.RandomPasswordHash()
	assert.NotEmpty(t, hash)
}
