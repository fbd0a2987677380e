package renderer

// PixelRange is a half-open range [Start, End) of flattened pixel indices
type PixelRange struct {
	Start int
	End   int
}

// Len returns the number of pixels in the range
func (r PixelRange) Len() int {
	return r.End - r.Start
}

// PartitionPixels splits [0,total) into exactly workers contiguous ranges of
// total/workers pixels each, with the remainder appended to the last range.
// A worker count below one is treated as one.
func PartitionPixels(total, workers int) []PixelRange {
	if workers < 1 {
		workers = 1
	}
	if total < 0 {
		total = 0
	}

	size := total / workers
	ranges := make([]PixelRange, workers)
	for i := range ranges {
		ranges[i] = PixelRange{Start: i * size, End: (i + 1) * size}
	}
	ranges[workers-1].End = total

	return ranges
}
