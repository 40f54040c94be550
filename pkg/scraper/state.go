package scraper

// State is the walker's position in its fetch/extract loop
type State int

const (
	StateFetching State = iota
	StateExtracting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
