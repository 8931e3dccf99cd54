// Package metadata slices a bencoded info-dict into the fixed 16 KiB
// blocks BEP-9 metadata exchange transfers one at a time, grounded on the
// same piece length the teacher's BitTorrent.GetMetadata uses to
// reassemble those blocks off the wire (common/bittorrent/core.go).
package metadata

import "github.com/pkg/errors"

// BlockSize is the fixed BEP-9 metadata piece length.
const BlockSize = 16384

// ErrBadPiece is returned when a block index is out of range.
var ErrBadPiece = errors.New("metadata: bad piece index")

// Table is an indexable sequence of 16 KiB slices over a bencoded
// info-dict's raw bytes; it does not copy the underlying bytes.
type Table struct {
	raw []byte
}

// New builds a Table over the given bencoded info-dict bytes.
func New(raw []byte) *Table {
	return &Table{raw: raw}
}

// Size returns the byte length of the info-dict.
func (t *Table) Size() int {
	return len(t.raw)
}

// BlockCount returns ceil(Size / BlockSize).
func (t *Table) BlockCount() int {
	return (len(t.raw) + BlockSize - 1) / BlockSize
}

// Block returns the bytes of block i: [i*BlockSize, min((i+1)*BlockSize, Size)).
func (t *Table) Block(i int) ([]byte, error) {
	if i < 0 || i >= t.BlockCount() {
		return nil, errors.Wrapf(ErrBadPiece, "index %d, have %d blocks", i, t.BlockCount())
	}
	start := i * BlockSize
	end := start + BlockSize
	if end > len(t.raw) {
		end = len(t.raw)
	}
	return t.raw[start:end], nil
}
