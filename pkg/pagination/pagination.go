package pagination

const (
	// DefaultLimit is the page size used when a limit is missing or invalid.
	DefaultLimit = 10
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Page holds normalized offset pagination inputs.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the inputs: a limit outside (0, MaxLimit] falls back to
// DefaultLimit, a negative offset becomes zero.
func Normalize(limit, offset int) Page {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
