package indicator

// Value is a single indicator sample. Indicators fail closed: a sample is
// absent (OK false) until enough history exists for the configured lookback,
// never zero and never an error.
type Value struct {
	V  float64
	OK bool
}

// Absent returns an absent indicator sample.
func Absent() Value {
	return Value{}
}

// Present returns a present indicator sample holding the provided value.
func Present(v float64) Value {
	return Value{V: v, OK: true}
}
