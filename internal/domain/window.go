package domain

// DefaultWindowSize is the number of days shown per dashboard page.
const DefaultWindowSize = 7

// InitialOffset places the first window over the most recent entries.
func InitialOffset(total, size int) int {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if total <= size {
		return 0
	}
	return total - size
}

// ClampOffset bounds an offset so the window never starts past the last valid
// start and never goes negative.
func ClampOffset(offset, total, size int) int {
	if size <= 0 {
		size = DefaultWindowSize
	}
	max := total - size
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// PrevOffset moves one window back.
func PrevOffset(offset, size int) int {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if offset-size < 0 {
		return 0
	}
	return offset - size
}

// NextOffset moves one window forward, clamped to the last valid start.
func NextOffset(offset, total, size int) int {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return ClampOffset(offset+size, total, size)
}

// Window returns the contiguous slice records[offset : offset+size] after
// clamping the offset. A size larger than the history returns the whole
// history from offset 0.
func Window(records []ActivityRecord, offset, size int) []ActivityRecord {
	if size <= 0 {
		size = DefaultWindowSize
	}
	offset = ClampOffset(offset, len(records), size)
	end := offset + size
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}
