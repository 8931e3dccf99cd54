package filetree

import (
	"runtime"
	"strings"

	"dht-ocean/pieceset"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// buildNode is the mutable intermediate tree used while assembling Nodes;
// it exists only inside Build and is never returned to callers.
type buildNode struct {
	kind     Kind
	name     string
	path     string
	children []*buildNode
	byName   map[string]*buildNode
	offset   int64
	size     int64
}

// Build runs the five construction stages of spec §4.C over a flat,
// metainfo-ordered file list and returns the dense node array indexed by
// id (root is always id 0).
func Build(pieceLen int64, records []FileRecord) (nodes []Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				nodes = nil
				return
			}
			panic(r)
		}
	}()

	root := &buildNode{kind: KindDirectory, byName: make(map[string]*buildNode)}

	// Stage 1 + 2: assign running offsets while inserting directory nodes.
	var offset int64
	for _, rec := range records {
		if len(rec.Path) == 0 {
			return nil, errors.New("filetree: file record with empty path")
		}
		cur := root
		for _, comp := range rec.Path[:len(rec.Path)-1] {
			child, ok := cur.byName[comp]
			if !ok {
				child = &buildNode{
					kind:   KindDirectory,
					name:   comp,
					path:   joinPath(cur.path, comp),
					byName: make(map[string]*buildNode),
					offset: offset,
				}
				cur.byName[comp] = child
				cur.children = append(cur.children, child)
			}
			cur = child
		}
		leafName := rec.Path[len(rec.Path)-1]
		leaf := &buildNode{
			kind:   KindFile,
			name:   leafName,
			path:   joinPath(cur.path, leafName),
			offset: offset,
			size:   rec.Length,
		}
		cur.byName[leafName] = leaf
		cur.children = append(cur.children, leaf)
		offset += rec.Length
	}
	totalLen := offset

	// Stage 2 continued: compute each directory's offset/size from its
	// first and last descendant.
	finalizeSizes(root)
	if root.size != totalLen {
		return nil, errors.Errorf("filetree: aggregated size %d disagrees with declared total %d", root.size, totalLen)
	}

	// Stage 3: root is already `root` (offset 0, size totalLen).

	// Stage 5: pre-order id assignment (cheap, strictly sequential — each
	// id depends on how many nodes earlier siblings contributed).
	out := make([]Node, 0, countNodes(root))
	assignIDs(root, &out)

	// Stage 4: piece masks are a pure function of (offset, size) and don't
	// depend on one another, so compute them concurrently across nodes —
	// the same fan-out-then-join shape dht-ocean's transaction layer uses
	// to run independent lookups off a single batch.
	if err := computeMasks(out, pieceLen, totalLen); err != nil {
		return nil, err
	}
	return out, nil
}

func countNodes(n *buildNode) int {
	total := 1
	for _, c := range n.children {
		total += countNodes(c)
	}
	return total
}

// finalizeSizes computes offset/size for every directory node bottom-up:
// a directory's offset is its first child's offset, and its size spans to
// the end of its last child, per spec §4.C stage 2's closing rule.
func finalizeSizes(n *buildNode) (start, end int64) {
	if n.kind == KindFile {
		return n.offset, n.offset + n.size
	}
	if len(n.children) == 0 {
		return n.offset, n.offset
	}
	first, _ := finalizeSizes(n.children[0])
	var last int64
	for _, c := range n.children {
		_, e := finalizeSizes(c)
		last = e
	}
	n.offset = first
	n.size = last - first
	return first, last
}

// assignIDs performs the stage-5 pre-order id walk and returns the id of
// the node just appended to *out. Piece masks are left zero-valued; they
// are filled in afterwards by computeMasks.
func assignIDs(n *buildNode, out *[]Node) int {
	id := len(*out)
	node := Node{
		ID:           id,
		Kind:         n.kind,
		RelativePath: n.path,
		DisplayName:  basename(n.path),
		Size:         n.size,
		Offset:       n.offset,
	}
	*out = append(*out, node)

	for _, c := range n.children {
		childID := assignIDs(c, out)
		node.Children = append(node.Children, childID)
	}
	node.ChildCount = len(*out) - id - 1
	(*out)[id] = node
	return id
}

// computeMasks fills in every node's PieceMask in parallel: each node's
// mask depends only on its own (offset, size), never on a sibling's, so
// there is no ordering constraint between them.
func computeMasks(nodes []Node, pieceLen, totalLen int64) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range nodes {
		i := i
		g.Go(func() (err error) {
			// Mask panics on invariant violations; Build's own recover cannot
			// see a panic raised on this goroutine, so convert it here.
			defer func() {
				if r := recover(); r != nil {
					e, ok := r.(error)
					if !ok {
						panic(r)
					}
					err = errors.Wrapf(e, "node %d", i)
				}
			}()
			mask, err := nodeMask(nodes[i].Offset, nodes[i].Size, pieceLen, totalLen)
			if err != nil {
				return errors.Wrapf(err, "node %d", i)
			}
			nodes[i].PieceMask = mask
			return nil
		})
	}
	return g.Wait()
}

func nodeMask(offset, size, pieceLen, totalLen int64) (pieceset.Set, error) {
	if totalLen == 0 {
		return pieceset.Empty(0), nil
	}
	return Mask(offset, size, pieceLen, totalLen)
}

// basename returns the final path component.
func basename(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

// joinPath joins a (possibly empty) base directory with a tail component,
// yielding the tail verbatim when base is empty (no leading separator).
func joinPath(base, tail string) string {
	if base == "" {
		return tail
	}
	return base + "/" + tail
}
