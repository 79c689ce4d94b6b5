package runner

import "locline/internal/domain"

// partition splits items into contiguous chunks of ceil(len/workers) in
// original order, one chunk per worker. The last chunk may be shorter and
// no chunk is empty, so the chunk count never exceeds workers. A worker
// count below 1 is coerced to 1. No items means no chunks.
func partition(items []domain.Line, workers int) [][]domain.Line {
	if len(items) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	chunkSize := (len(items) + workers - 1) / workers
	var chunks [][]domain.Line
	for i := 0; i < len(items); i += chunkSize {
		end := i + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}
