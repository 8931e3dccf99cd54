// Package infoservice serves the complete file/piece/metadata mapping
// built by filetree and metadata for a single torrent: the "Info
// service" of spec component E. State is constructed once and never
// mutated afterwards, so every query method here is safe to call
// concurrently without locking — the same guarantee the teacher's
// shared, immutable node/metadata tables rely on.
package infoservice

import (
	"strings"

	"dht-ocean/filetree"
	"dht-ocean/metadata"
	"dht-ocean/pieceset"

	"github.com/pkg/errors"
)

// DefaultChunkSize is the default download chunk size (spec's chunk_size).
const DefaultChunkSize = 16384

// Sentinel errors surfaced to callers unchanged, per spec §7.
var (
	// ErrBadID is returned when a caller passes a node id outside [0, node_count).
	ErrBadID = filetree.ErrBadID
	// ErrBadPiece is returned when a metadata block index is out of range.
	ErrBadPiece = metadata.ErrBadPiece
	// ErrRangeOutOfBounds resolves the §9 open question: GetMaskRange rejects
	// a sub-range that does not fit inside the target file.
	ErrRangeOutOfBounds = errors.New("infoservice: sub-range out of bounds")
)

// ValidPiecesFunc is the injected collaborator call described in spec §6:
// "a valid_pieces(torrent_id) -> piece-set call on the download
// controller". The torrent id is implicit in the closure the caller
// supplies to New, mirroring how BitTorrent.SetTrafficMetricFunc injects
// a single-torrent callback rather than threading an id through every call.
type ValidPiecesFunc func() pieceset.Set

// ChildSummary is the (id, name, size, capacity, is_leaf, progress) tuple
// tree_children returns for one child node.
type ChildSummary struct {
	ID       int
	Name     string
	Size     int64
	Capacity int
	IsLeaf   bool
	Progress float64
}

// Service is the read-only, single-torrent info service.
type Service struct {
	torrentID   int64
	pieceLen    int64
	chunkSize   int64
	nodes       []filetree.Node
	metadata    *metadata.Table
	validPieces ValidPiecesFunc
}

// New builds a Service from a flat, metainfo-ordered file list and the
// raw bencoded info-dict bytes. Construction runs to completion before
// any reader can observe the service, per spec §5.
func New(torrentID, pieceLen, chunkSize int64, records []filetree.FileRecord, infoDict []byte, validPieces ValidPiecesFunc) (*Service, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	nodes, err := filetree.Build(pieceLen, records)
	if err != nil {
		return nil, errors.Wrap(err, "infoservice: building file tree")
	}
	if validPieces == nil {
		pieceCount := 0
		if len(nodes) > 0 {
			pieceCount = nodes[0].PieceMask.Len()
		}
		validPieces = func() pieceset.Set { return pieceset.Empty(pieceCount) }
	}
	return &Service{
		torrentID:   torrentID,
		pieceLen:    pieceLen,
		chunkSize:   chunkSize,
		nodes:       nodes,
		metadata:    metadata.New(infoDict),
		validPieces: validPieces,
	}, nil
}

// TorrentID returns the torrent id this service was constructed for.
func (s *Service) TorrentID() int64 { return s.torrentID }

// PieceSize returns the torrent's piece length.
func (s *Service) PieceSize() int64 { return s.pieceLen }

// ChunkSize returns the download chunk size.
func (s *Service) ChunkSize() int64 { return s.chunkSize }

// PieceCount returns the number of pieces in the torrent.
func (s *Service) PieceCount() int {
	if len(s.nodes) == 0 {
		return 0
	}
	return s.nodes[0].PieceMask.Len()
}

func (s *Service) node(id int) (filetree.Node, error) {
	if id < 0 || id >= len(s.nodes) {
		return filetree.Node{}, errors.Wrapf(ErrBadID, "id %d", id)
	}
	return s.nodes[id], nil
}

// Position returns the byte offset of node id.
func (s *Service) Position(id int) (int64, error) {
	n, err := s.node(id)
	if err != nil {
		return 0, err
	}
	return n.Offset, nil
}

// Size returns the byte size of node id.
func (s *Service) Size(id int) (int64, error) {
	n, err := s.node(id)
	if err != nil {
		return 0, err
	}
	return n.Size, nil
}

// FileName returns the relative path of node id.
func (s *Service) FileName(id int) (string, error) {
	n, err := s.node(id)
	if err != nil {
		return "", err
	}
	return n.RelativePath, nil
}

// LongFileName joins the display names of the given node ids with ", ",
// a UI convention preserved verbatim per spec §9.
func (s *Service) LongFileName(ids []int) (string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.node(id)
		if err != nil {
			return "", err
		}
		names = append(names, n.DisplayName)
	}
	return strings.Join(names, ", "), nil
}

// TreeChildren returns a summary of each direct child of node id,
// including a progress ratio computed against the injected valid-pieces
// collaborator.
func (s *Service) TreeChildren(id int) ([]ChildSummary, error) {
	n, err := s.node(id)
	if err != nil {
		return nil, err
	}
	valid := s.validPieces()
	out := make([]ChildSummary, 0, len(n.Children))
	for _, childID := range n.Children {
		child := s.nodes[childID]
		progress := 1.0
		if total := child.PieceMask.PopCount(); total > 0 {
			covered, err := child.PieceMask.Intersect(valid)
			if err != nil {
				return nil, errors.Wrapf(err, "node %d progress", childID)
			}
			progress = float64(covered.PopCount()) / float64(total)
		}
		out = append(out, ChildSummary{
			ID:       child.ID,
			Name:     child.DisplayName,
			Size:     child.Size,
			Capacity: child.ChildCount,
			IsLeaf:   child.Kind == filetree.KindFile,
			Progress: progress,
		})
	}
	return out, nil
}

// GetMask returns the piece-set of node id.
func (s *Service) GetMask(id int) (pieceset.Set, error) {
	n, err := s.node(id)
	if err != nil {
		return pieceset.Set{}, err
	}
	return n.PieceMask, nil
}

// GetMaskUnion returns the union of the piece-sets of the given node ids,
// or an empty mask (width = torrent piece count) if ids is empty.
func (s *Service) GetMaskUnion(ids []int) (pieceset.Set, error) {
	union := pieceset.Empty(s.PieceCount())
	for _, id := range ids {
		n, err := s.node(id)
		if err != nil {
			return pieceset.Set{}, err
		}
		union, err = union.Union(n.PieceMask)
		if err != nil {
			return pieceset.Set{}, errors.Wrapf(err, "node %d", id)
		}
	}
	return union, nil
}

// GetMaskRange returns the piece-set covering [partStart, partStart+partLen)
// within node id's own byte range. This resolves the §9 open question:
// the sub-range is validated against the node's size and rejected with
// ErrRangeOutOfBounds rather than silently mirroring out-of-range bytes.
func (s *Service) GetMaskRange(id int, partStart, partLen int64) (pieceset.Set, error) {
	n, err := s.node(id)
	if err != nil {
		return pieceset.Set{}, err
	}
	if partStart < 0 || partLen < 0 || partStart+partLen > n.Size {
		return pieceset.Set{}, errors.Wrapf(ErrRangeOutOfBounds, "node %d: [%d,%d) vs size %d", id, partStart, partStart+partLen, n.Size)
	}
	return filetree.Mask(n.Offset+partStart, partLen, s.pieceLen, s.totalLen())
}

func (s *Service) totalLen() int64 {
	if len(s.nodes) == 0 {
		return 0
	}
	return s.nodes[0].Size
}

// MaskToFilelist returns the minimal node-id cover of mask, per spec §4.G.
func (s *Service) MaskToFilelist(mask pieceset.Set) ([]int, error) {
	return filetree.MaskToFilelist(s.nodes, mask)
}

// MinimizeFilelist drops ids already covered by an earlier-listed id in
// the caller's order, preserving the union of piece-sets.
func (s *Service) MinimizeFilelist(ids []int) ([]int, error) {
	return filetree.MinimizeFilelist(s.nodes, ids)
}

// MetadataSize returns the byte size of the bencoded info-dict.
func (s *Service) MetadataSize() int {
	return s.metadata.Size()
}

// GetPiece returns the bytes of BEP-9 metadata block i.
func (s *Service) GetPiece(i int) ([]byte, error) {
	block, err := s.metadata.Block(i)
	if err != nil {
		return nil, err
	}
	return block, nil
}
