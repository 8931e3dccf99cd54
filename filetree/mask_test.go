package filetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskSingleFile(t *testing.T) {
	m, err := Mask(2, 3, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, "110", m.Bitstring())
}

func TestMaskAligned(t *testing.T) {
	m, err := Mask(0, 31457280, 1048576, 31457280)
	require.NoError(t, err)
	assert.Equal(t, 30, m.Len())
	assert.Equal(t, 30, m.PopCount())
}

func TestMaskEmptyFile(t *testing.T) {
	m, err := Mask(5, 0, 4, 10)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestMaskRejectsOutOfRange(t *testing.T) {
	_, err := Mask(8, 3, 4, 10)
	assert.Error(t, err)
}

func TestMaskBoundaryPiecesAreShared(t *testing.T) {
	// file A occupies [0,5), file B occupies [5,10), piece length 4: both
	// touch piece 1 (bytes 4-7).
	a, err := Mask(0, 5, 4, 10)
	require.NoError(t, err)
	b, err := Mask(5, 5, 4, 10)
	require.NoError(t, err)
	assert.True(t, a.Contains(1))
	assert.True(t, b.Contains(1))
}
