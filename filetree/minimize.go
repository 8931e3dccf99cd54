package filetree

import (
	"dht-ocean/pieceset"

	"github.com/pkg/errors"
)

// ErrBadID is returned when a caller passes a node id outside [0, len(nodes)).
var ErrBadID = errors.New("filetree: bad node id")

// Record is the (offset, size) projection of a node used by the
// minimization algorithms; callers build it from whichever Nodes they
// want minimized.
type Record struct {
	ID     int
	Offset int64
	Size   int64
}

// MinimizeReclist drops any record whose offset lies within the byte range
// of the previously kept record, per spec §4.G. Records must be supplied
// in tree (pre-order) order for the result to be meaningful; the result
// preserves the union of piece-sets of the input and is idempotent.
func MinimizeReclist(records []Record) []Record {
	out := make([]Record, 0, len(records))
	var lastEnd int64
	haveLast := false
	for _, r := range records {
		if haveLast && r.Offset < lastEnd {
			continue
		}
		out = append(out, r)
		lastEnd = r.Offset + r.Size
		haveLast = true
	}
	return out
}

// MinimizeFilelist looks up each id's (offset, size) in nodes and applies
// MinimizeReclist, preserving the caller's order.
func MinimizeFilelist(nodes []Node, ids []int) ([]int, error) {
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(nodes) {
			return nil, errors.Wrapf(ErrBadID, "id %d", id)
		}
		n := nodes[id]
		records = append(records, Record{ID: n.ID, Offset: n.Offset, Size: n.Size})
	}
	kept := MinimizeReclist(records)
	out := make([]int, len(kept))
	for i, r := range kept {
		out[i] = r.ID
	}
	return out, nil
}

// MaskToFilelist descends from the root, emitting the id of every node
// whose piece-mask is fully contained in mask (and not descending further
// into it), per spec §4.G. The result is the smallest node-id cover of
// mask and is ordered by depth-first traversal.
func MaskToFilelist(nodes []Node, mask pieceset.Set) ([]int, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	var out []int
	var visit func(id int) error
	visit = func(id int) error {
		n := nodes[id]
		diff, err := n.PieceMask.Difference(mask)
		if err != nil {
			return errors.Wrapf(err, "node %d", id)
		}
		if diff.IsEmpty() {
			out = append(out, id)
			return nil
		}
		for _, childID := range n.Children {
			if err := visit(childID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(0); err != nil {
		return nil, err
	}
	return out, nil
}
