package uploader

// ChunkAlignment is the store-mandated alignment unit for chunk sizes
// (4 MiB). Concurrent sessions only accept out-of-order appends when every
// non-final chunk length is a multiple of this value.
const ChunkAlignment = 4 * 1024 * 1024

// Chunk describes one contiguous byte range of a source file, the unit of
// one append call.
type Chunk struct {
	Offset int64
	Length int64
	Final  bool
}

// planChunks slices a file of the given size into chunks of chunkSize
// bytes, the last possibly shorter and marked Final. The chunks are
// non-overlapping, contiguous, and concatenate to exactly size bytes.
// A zero-length file yields a single zero-length final chunk so its
// session can still be opened and immediately closed.
//
// Pure function of (size, chunkSize); chunkSize must be positive, which
// the coordinator validates before any planning happens.
func planChunks(size, chunkSize int64) []Chunk {
	if size == 0 {
		return []Chunk{{Offset: 0, Length: 0, Final: true}}
	}

	chunks := make([]Chunk, 0, (size+chunkSize-1)/chunkSize)

	for offset := int64(0); offset < size; offset += chunkSize {
		length := chunkSize
		if remaining := size - offset; remaining < length {
			length = remaining
		}

		chunks = append(chunks, Chunk{
			Offset: offset,
			Length: length,
			Final:  offset+length == size,
		})
	}

	return chunks
}
