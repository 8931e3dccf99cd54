package filetree

import (
	"dht-ocean/pieceset"

	"github.com/pkg/errors"
)

// Mask computes the piece-set covering the byte range [from, from+size) of
// a torrent whose pieces are pieceLen bytes long and whose total length is
// totalLen bytes, following the same ceil-division arithmetic the teacher's
// BitTorrent metadata exchange uses to size its own 16 KiB pieces.
func Mask(from, size, pieceLen, totalLen int64) (pieceset.Set, error) {
	if pieceLen < 1 {
		return pieceset.Set{}, errors.Errorf("filetree: piece length must be >= 1, got %d", pieceLen)
	}
	if pieceLen > totalLen {
		return pieceset.Set{}, errors.Errorf("filetree: piece length %d exceeds total length %d", pieceLen, totalLen)
	}
	if size > totalLen {
		return pieceset.Set{}, errors.Errorf("filetree: size %d exceeds total length %d", size, totalLen)
	}
	if from < 0 {
		return pieceset.Set{}, errors.Errorf("filetree: negative offset %d", from)
	}
	if from+size > totalLen {
		return pieceset.Set{}, errors.Errorf("filetree: range [%d,%d) exceeds total length %d", from, from+size, totalLen)
	}

	pieceCount := ceilDiv(totalLen, pieceLen)
	if pieceCount < 0 {
		panic(errors.Errorf("filetree: negative piece count %d", pieceCount))
	}

	before := from / pieceLen
	to := from + size

	var in int64
	if size == 0 {
		in = 0
	} else {
		left := (pieceLen - from%pieceLen) % pieceLen
		right := to % pieceLen
		middle := size - left - right
		if middle%pieceLen != 0 {
			panic(errors.Errorf("filetree: non-divisible middle %d (size=%d left=%d right=%d pieceLen=%d)", middle, size, left, right, pieceLen))
		}
		in = middle / pieceLen
		if left > 0 {
			in++
		}
		if right > 0 {
			in++
		}
	}

	after := pieceCount - before - in
	if after < 0 {
		panic(errors.Errorf("filetree: negative trailing piece count %d (before=%d in=%d count=%d)", after, before, in, pieceCount))
	}

	mask := pieceset.Empty(int(pieceCount))
	for i := int(before); i < int(before+in); i++ {
		mask.Set(i)
	}
	return mask, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
