package finance

// Status says where the data in a Result came from.
type Status int

const (
	Real Status = iota
	Fallback
)

func (s Status) String() string {
	if s == Fallback {
		return "Fallback"
	}
	return "Real"
}

// Result carries fetched data together with its provenance. Err is set when
// Status is Fallback and explains why the real fetch was abandoned.
type Result[T any] struct {
	Status Status
	Data   T
	Err    error
}

func (r Result[T]) IsFallback() bool {
	return r.Status == Fallback
}
