package tabs

import (
	"sync"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
)

// Status is where a tab is in its load/save cycle
type Status int

const (
	StatusUnloaded Status = iota
	StatusClean
	StatusDirty
	StatusSaving
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusClean:
		return "clean"
	case StatusDirty:
		return "dirty"
	case StatusSaving:
		return "saving"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of one tab. Terminal is set once the
// server no longer has the character and the tab will never save again.
type Snapshot struct {
	SlotID    string
	Status    Status
	LastError error
	Terminal  bool
	Character *character.Character
}

// slot is one open tab. Every field is guarded by mu; no store call is made
// while mu is held.
type slot struct {
	mu sync.Mutex
	id string

	char     *character.Character
	status   Status
	lastErr  error
	terminal bool
	closed   bool
	deleting bool

	timer      Timer
	inFlight   bool
	pending    bool
	flightDone chan struct{}

	// editSeq counts successful edits so a save can tell whether the state it
	// sent is still the latest
	editSeq uint64
}

func (s *slot) snapshotLocked() Snapshot {
	var char *character.Character
	if s.char != nil {
		char = s.char.Clone()
	}
	return Snapshot{
		SlotID:    s.id,
		Status:    s.status,
		LastError: s.lastErr,
		Terminal:  s.terminal,
		Character: char,
	}
}

func (s *slot) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *slot) name() string {
	if s.char == nil {
		return s.id
	}
	return s.char.Name()
}
