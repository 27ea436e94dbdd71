package model

// Patch is an optional field update.  The zero value means "leave the
// stored value unchanged"; Set wraps a value that should be written.
// Partial updates (bulk ARI, restriction upserts) apply a patch
// field-by-field against the stored row instead of spreading
// conditionally-present keys into an update payload.
type Patch[T any] struct {
	set bool
	val T
}

// Set returns a patch that writes v.
func Set[T any](v T) Patch[T] { return Patch[T]{set: true, val: v} }

// SetPtr returns a patch that writes *p when p is non-nil and leaves the
// field unchanged otherwise.  Handy when binding JSON pointer fields.
func SetPtr[T any](p *T) Patch[T] {
	if p == nil {
		return Patch[T]{}
	}
	return Set(*p)
}

// IsSet reports whether the patch carries a value.
func (p Patch[T]) IsSet() bool { return p.set }

// Value returns the carried value; meaningful only when IsSet is true.
func (p Patch[T]) Value() T { return p.val }
