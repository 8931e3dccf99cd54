package filetree

import (
	"testing"

	"dht-ocean/pieceset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []FileRecord {
	return []FileRecord{
		{Path: []string{"test", "t1.txt"}, Length: 3},
		{Path: []string{"t2.txt"}, Length: 2},
		{Path: []string{"dir1", "dir", "x.x"}, Length: 1},
		{Path: []string{"dir1", "dir", "x.y"}, Length: 2},
	}
}

func byPath(nodes []Node, path string) Node {
	for _, n := range nodes {
		if n.RelativePath == path {
			return n
		}
	}
	panic("no such node: " + path)
}

func TestBuildSampleTree(t *testing.T) {
	nodes, err := Build(8, sampleRecords())
	require.NoError(t, err)
	assert.Len(t, nodes, 8)

	root := nodes[0]
	assert.Equal(t, "", root.RelativePath)
	assert.Equal(t, int64(8), root.Size)
	assert.Equal(t, int64(0), root.Offset)
	assert.Equal(t, KindDirectory, root.Kind)

	dir1 := byPath(nodes, "dir1")
	assert.Equal(t, int64(3), dir1.Size)
	assert.Equal(t, int64(5), dir1.Offset)

	dir1dir := byPath(nodes, "dir1/dir")
	assert.Equal(t, int64(3), dir1dir.Size)
	assert.Equal(t, int64(5), dir1dir.Offset)

	xx := byPath(nodes, "dir1/dir/x.x")
	assert.Equal(t, "x.x", xx.DisplayName)
	assert.Equal(t, int64(5), xx.Offset)
	assert.Equal(t, int64(1), xx.Size)
}

func TestBuildPreOrderIDs(t *testing.T) {
	nodes, err := Build(8, sampleRecords())
	require.NoError(t, err)
	order := make([]string, len(nodes))
	for _, n := range nodes {
		order[n.ID] = n.RelativePath
	}
	assert.Equal(t, []string{
		"", "test", "test/t1.txt", "t2.txt", "dir1", "dir1/dir", "dir1/dir/x.x", "dir1/dir/x.y",
	}, order)
}

func TestTreeAdditivity(t *testing.T) {
	nodes, err := Build(8, sampleRecords())
	require.NoError(t, err)
	for _, n := range nodes {
		if n.Kind != KindDirectory {
			continue
		}
		union := pieceset.Empty(n.PieceMask.Len())
		var err error
		for _, childID := range n.Children {
			union, err = union.Union(nodes[childID].PieceMask)
			require.NoError(t, err)
		}
		assert.Equal(t, n.PieceMask.Bitstring(), union.Bitstring(), "node %s", n.RelativePath)
	}
}

func TestMinimizeFilelist(t *testing.T) {
	nodes, err := Build(8, sampleRecords())
	require.NoError(t, err)
	all := make([]int, 0, len(nodes)-1)
	for _, n := range nodes {
		if n.ID == 0 {
			continue
		}
		all = append(all, n.ID)
	}
	kept, err := MinimizeFilelist(nodes, all)
	require.NoError(t, err)
	names := make([]string, len(kept))
	for i, id := range kept {
		names[i] = nodes[id].RelativePath
	}
	assert.Equal(t, []string{"test", "t2.txt", "dir1"}, names)
}

func TestMinimizeIdempotent(t *testing.T) {
	nodes, err := Build(8, sampleRecords())
	require.NoError(t, err)
	all := make([]int, 0, len(nodes)-1)
	for _, n := range nodes {
		if n.ID == 0 {
			continue
		}
		all = append(all, n.ID)
	}
	once, err := MinimizeFilelist(nodes, all)
	require.NoError(t, err)
	twice, err := MinimizeFilelist(nodes, once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestMaskToFilelistSiblingsNotParent(t *testing.T) {
	// "test" and "t2.txt" are two of the root's three children; with one
	// byte per piece their union (pieces 0-4) is smaller than the root's.
	nodes, err := Build(1, sampleRecords())
	require.NoError(t, err)
	testDir := byPath(nodes, "test")
	t2 := byPath(nodes, "t2.txt")
	union, err := testDir.PieceMask.Union(t2.PieceMask)
	require.NoError(t, err)

	root := nodes[0]
	if union.Bitstring() == root.PieceMask.Bitstring() {
		t.Skip("siblings' union happens to equal the parent's mask for this piece length")
	}

	ids, err := MaskToFilelist(nodes, union)
	require.NoError(t, err)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = nodes[id].RelativePath
	}
	assert.ElementsMatch(t, []string{"test", "t2.txt"}, names)
}

func TestMaskToFilelistRootWhenMaskIsUniversal(t *testing.T) {
	nodes, err := Build(8, sampleRecords())
	require.NoError(t, err)
	ids, err := MaskToFilelist(nodes, nodes[0].PieceMask)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, ids)
}

func TestMaskToFilelistSoundness(t *testing.T) {
	nodes, err := Build(8, sampleRecords())
	require.NoError(t, err)
	requested := nodes[0].PieceMask // universal mask
	ids, err := MaskToFilelist(nodes, requested)
	require.NoError(t, err)

	union := pieceset.Empty(requested.Len())
	for _, id := range ids {
		union, err = union.Union(nodes[id].PieceMask)
		require.NoError(t, err)
	}
	diff, err := requested.Difference(union)
	require.NoError(t, err)
	assert.True(t, diff.IsEmpty())
}

func TestMinimizeFilelistBadID(t *testing.T) {
	nodes, err := Build(8, sampleRecords())
	require.NoError(t, err)
	_, err = MinimizeFilelist(nodes, []int{len(nodes)})
	assert.ErrorIs(t, err, ErrBadID)
}
