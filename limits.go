package sloth

const (
	MaxPageSize     = 100
	DefaultPageSize = 5
)

// ClampPageSize maps a caller supplied page size into [1, maxSize]. The
// second result reports whether size was already acceptable.
func ClampPageSize(size, maxSize int) (int, bool) {
	switch {
	case size <= 0:
		return min(DefaultPageSize, maxSize), false
	case size > maxSize:
		return maxSize, false
	default:
		return size, true
	}
}
