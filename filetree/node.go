package filetree

import "dht-ocean/pieceset"

// Kind distinguishes a file node from a directory node.
type Kind int

const (
	// KindFile identifies a leaf node carrying real bytes.
	KindFile Kind = iota
	// KindDirectory identifies an internal node aggregating its children.
	KindDirectory
)

func (k Kind) String() string {
	if k == KindFile {
		return "file"
	}
	return "directory"
}

// Node is one file or directory entry of a torrent's file tree, addressed
// by a dense, pre-order-assigned integer id.
type Node struct {
	ID           int
	Kind         Kind
	RelativePath string
	DisplayName  string
	Children     []int
	ChildCount   int
	Size         int64
	Offset       int64
	PieceMask    pieceset.Set
}

// FileRecord is one (path, length) entry as it appears in a torrent's
// metainfo file list, in declared order. Path is the list of path
// components (mirroring the already-decoded `File.Path []string` shape
// used elsewhere in this codebase), not a single joined string.
type FileRecord struct {
	Path   []string
	Length int64
}
