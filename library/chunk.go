package library

import "fmt"

// Chunk splits items into groups of exactly size items; the last group may be
// shorter. Content-type boundaries are not respected.
func Chunk[T any](items []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", size)
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks, nil
}

// LocateChunk returns the index of the first chunk holding an item with the
// given order index. It scans every item; nothing is precomputed.
func LocateChunk(chunks [][]ContentItem, orderIndex int) (int, bool) {
	for i, chunk := range chunks {
		for _, item := range chunk {
			if item.Order() == orderIndex {
				return i, true
			}
		}
	}
	return -1, false
}

// Width classes for ChunkSizeForWidth, in terminal columns.
const (
	railWidth   = 100
	drawerWidth = 160
)

// ChunkSizeForWidth maps a display width to items per page: compact displays
// get one, medium two, wide three.
func ChunkSizeForWidth(cols int) int {
	switch {
	case cols >= drawerWidth:
		return 3
	case cols >= railWidth:
		return 2
	default:
		return 1
	}
}
