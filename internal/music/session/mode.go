package session

// Mode decides how the cursor moves when a track finishes on its own.
type Mode int

const (
	Sequential Mode = iota
	LoopAll
	Shuffle
	LoopOne
)

// Modes lists every mode in switch order.
var Modes = []Mode{Sequential, LoopAll, Shuffle, LoopOne}

func (m Mode) String() string {
	switch m {
	case LoopAll:
		return "Loop All"
	case Shuffle:
		return "Shuffle"
	case LoopOne:
		return "Loop One"
	default:
		return "Sequential"
	}
}

func (m Mode) StringEmoji() string {
	switch m {
	case LoopAll:
		return "🔁"
	case Shuffle:
		return "🔀"
	case LoopOne:
		return "🔂"
	default:
		return "▶️"
	}
}

// Next returns the mode that follows m, wrapping after LoopOne.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Sequential
}
