package infoservice

import (
	"context"
	"testing"

	"dht-ocean/filetree"
	"dht-ocean/pieceset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []filetree.FileRecord {
	return []filetree.FileRecord{
		{Path: []string{"test", "t1.txt"}, Length: 3},
		{Path: []string{"t2.txt"}, Length: 2},
		{Path: []string{"dir1", "dir", "x.x"}, Length: 1},
		{Path: []string{"dir1", "dir", "x.y"}, Length: 2},
	}
}

func newTestService(t *testing.T, valid ValidPiecesFunc) *Service {
	t.Helper()
	infoDict := make([]byte, 100000)
	svc, err := New(1, 8, 0, sampleRecords(), infoDict, valid)
	require.NoError(t, err)
	return svc
}

func TestBasicSizes(t *testing.T) {
	svc := newTestService(t, nil)
	assert.Equal(t, int64(8), svc.PieceSize())
	assert.Equal(t, int64(DefaultChunkSize), svc.ChunkSize())
	assert.Equal(t, 1, svc.PieceCount())
	assert.Equal(t, 100000, svc.MetadataSize())

	last, err := svc.GetPiece(6)
	require.NoError(t, err)
	assert.Len(t, last, 1696)

	_, err = svc.GetPiece(7)
	assert.ErrorIs(t, err, ErrBadPiece)
}

func TestPositionSizeFileName(t *testing.T) {
	svc := newTestService(t, nil)
	size, err := svc.Size(0)
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)

	pos, err := svc.Position(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	name, err := svc.FileName(0)
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestBadID(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Size(999)
	assert.ErrorIs(t, err, ErrBadID)
	_, err = svc.Position(999)
	assert.ErrorIs(t, err, ErrBadID)
	_, err = svc.FileName(999)
	assert.ErrorIs(t, err, ErrBadID)
}

func TestLongFileName(t *testing.T) {
	svc := newTestService(t, nil)
	// ids 1 (test) and 3 (t2.txt) per the known pre-order layout.
	name, err := svc.LongFileName([]int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, "test, t2.txt", name)
}

func TestGetMaskUnionEmpty(t *testing.T) {
	svc := newTestService(t, nil)
	m, err := svc.GetMaskUnion(nil)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestGetMaskRangeValidatesBounds(t *testing.T) {
	svc := newTestService(t, nil)
	// node 1 is "test", a directory of size 3 at offset 0.
	_, err := svc.GetMaskRange(1, 0, 10)
	assert.ErrorIs(t, err, ErrRangeOutOfBounds)

	_, err = svc.GetMaskRange(1, -1, 1)
	assert.ErrorIs(t, err, ErrRangeOutOfBounds)

	m, err := svc.GetMaskRange(1, 0, 3)
	require.NoError(t, err)
	assert.False(t, m.IsEmpty())
}

func TestTreeChildrenProgress(t *testing.T) {
	svc := newTestService(t, func() pieceset.Set {
		return pieceset.Universal(1)
	})
	children, err := svc.TreeChildren(0)
	require.NoError(t, err)
	require.Len(t, children, 3)
	for _, c := range children {
		assert.Equal(t, 1.0, c.Progress)
	}
}

func TestTreeChildrenProgressNoValidPieces(t *testing.T) {
	svc := newTestService(t, func() pieceset.Set {
		return pieceset.Empty(1)
	})
	children, err := svc.TreeChildren(0)
	require.NoError(t, err)
	for _, c := range children {
		assert.Equal(t, 0.0, c.Progress)
	}
}

func TestTreeChildrenDefaultValidPieces(t *testing.T) {
	svc := newTestService(t, nil)
	children, err := svc.TreeChildren(0)
	require.NoError(t, err)
	for _, c := range children {
		assert.Equal(t, 0.0, c.Progress)
	}
}

func TestGetPieceBadPiece(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.GetPiece(999)
	assert.ErrorIs(t, err, ErrBadPiece)
}

func TestMailboxSubmit(t *testing.T) {
	svc := newTestService(t, nil)
	mb := NewMailbox(context.Background(), svc, 4)
	defer mb.Close()

	var size int64
	err := mb.Submit(context.Background(), func(s *Service) {
		v, _ := s.Size(0)
		size = v
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
}
