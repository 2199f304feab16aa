package shared

// Direction represents a predicted market direction over a horizon.
type Direction int

const (
	None Direction = iota
	Up
	Down
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// Opposite returns the flipped direction. None has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	default:
		return None
	}
}
