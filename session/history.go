package session

import "knitchart/raster"

// history is a linear sequence of working-bitmap snapshots with a cursor.
// There is no redo: pushing after an undo discards everything past the
// cursor.
type history struct {
	snaps []*raster.Bitmap
	pos   int
}

func (h *history) push(b *raster.Bitmap) {
	if len(h.snaps) > 0 {
		h.snaps = h.snaps[:h.pos+1]
	}
	h.snaps = append(h.snaps, b.Clone())
	h.pos = len(h.snaps) - 1
}

// undo steps the cursor back and returns a copy of that snapshot, or nil
// when already at the first snapshot.
func (h *history) undo() *raster.Bitmap {
	if h.pos == 0 {
		return nil
	}
	h.pos--
	return h.snaps[h.pos].Clone()
}

func (h *history) reset() {
	h.snaps = nil
	h.pos = 0
}
