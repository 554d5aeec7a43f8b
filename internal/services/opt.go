package services

// Opt is an input field that may be absent. Updates only touch set fields.
type Opt[T any] struct {
	V   T
	Set bool
}

func Some[T any](v T) Opt[T] { return Opt[T]{V: v, Set: true} }

// Or returns the value when set, def otherwise.
func (o Opt[T]) Or(def T) T {
	if o.Set {
		return o.V
	}
	return def
}
