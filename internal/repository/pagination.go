package repository

// Page represents a simple limit/offset window for listing operations.
// Validation happens before it gets here; accessors trust it.
type Page struct {
	Limit  int
	Offset int
}
