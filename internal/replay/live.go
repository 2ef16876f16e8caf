package replay

import "sync"

// Live folds a match's frames into its current full state, so a spectator
// that missed turn frames can be brought back in sync with one snapshot.
type Live struct {
	mu    sync.Mutex
	frame *Frame
}

// Update applies the next frame. Frames before match_started are ignored.
func (l *Live) Update(f *Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f.Type == TypeStarted {
		cp := *f
		cp.Grid = append([]int(nil), f.Grid...)
		l.frame = &cp
		return
	}
	if l.frame == nil {
		return
	}
	f.Apply(l.frame.Grid, l.frame.Width)
	l.frame.Type = f.Type
	l.frame.Turn = f.Turn
	l.frame.Players = f.Players
	l.frame.Commands = f.Commands
	l.frame.Report = f.Report
	l.frame.Winner = f.Winner
	l.frame.Standings = f.Standings
}

// Snapshot returns the current state with the whole grid, or nil before
// the match has started.
func (l *Live) Snapshot() *Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frame == nil {
		return nil
	}
	cp := *l.frame
	cp.Grid = append([]int(nil), l.frame.Grid...)
	cp.Updates = nil
	return &cp
}
