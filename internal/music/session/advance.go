package session

import "errors"

// Trigger is the event that asks the cursor to move.
type Trigger int

const (
	NaturalEnd Trigger = iota
	ManualPrev
	ManualNext
)

func (t Trigger) String() string {
	switch t {
	case ManualPrev:
		return "prev"
	case ManualNext:
		return "next"
	default:
		return "natural-end"
	}
}

var (
	ErrEndOfQueue = errors.New("end of queue")
	ErrNoPrevious = errors.New("no previous track")
	ErrNoNext     = errors.New("no next track")
)

// NextIndex computes where the cursor goes for trigger. Manual triggers never
// wrap; out of range they report ErrNoPrevious/ErrNoNext. A natural end
// follows mode and yields ErrEndOfQueue only in Sequential mode past the last
// track. intn must return a value in [0, n).
func NextIndex(cursor, length int, mode Mode, trigger Trigger, intn func(int) int) (int, error) {
	switch trigger {
	case ManualPrev:
		next := cursor - 1
		if next < 0 || next >= length {
			return cursor, ErrNoPrevious
		}
		return next, nil
	case ManualNext:
		next := cursor + 1
		if next < 0 || next >= length {
			return cursor, ErrNoNext
		}
		return next, nil
	}

	if length <= 0 {
		return cursor, ErrEndOfQueue
	}

	switch mode {
	case LoopAll:
		return (cursor + 1) % length, nil
	case Shuffle:
		return intn(length), nil
	case LoopOne:
		if cursor < 0 || cursor >= length {
			return 0, nil
		}
		return cursor, nil
	default:
		next := cursor + 1
		if next >= length {
			return cursor, ErrEndOfQueue
		}
		return next, nil
	}
}
