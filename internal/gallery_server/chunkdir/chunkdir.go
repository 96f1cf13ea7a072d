// Package chunkdir holds the per-label chunk bookkeeping model. Every label
// owns a directory of bounded chunks; items are appended to an active chunk
// until its volume reaches the soft threshold, after which the chunk stops
// accepting inserts.
package chunkdir

// ChunkState is the recorded fill level of one chunk. Volume may be briefly
// stale under concurrent writers.
type ChunkState struct {
	ID     int
	Volume int
}

// Directory is a snapshot of one label's partition metadata. Active lists
// only the chunks currently believed under the fill threshold, so an
// insertion never inspects more than the active set.
type Directory struct {
	Label string

	// ChunkCount is the total number of chunks ever created for the label.
	// Chunk ids are 0..ChunkCount-1 and are never reused.
	ChunkCount int

	Active []ChunkState
}

// PickActive returns the insertion target. The choice is deliberately the
// first listed active chunk rather than a random or fill-proportional one;
// load distribution across chunks comes from the threshold rotation, and
// keeping the choice trivial keeps insertion cost constant.
func (d *Directory) PickActive() (int, bool) {
	if len(d.Active) == 0 {
		return 0, false
	}
	return d.Active[0].ID, true
}

// Item is one weighted image reference inside a chunk. Items are immutable
// once written.
type Item struct {
	Label     string
	ChunkID   int
	ObjectKey string
	Weight    float64
}
