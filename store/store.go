// Package store holds the frames captured while recording.
package store

import "github.com/mame82/radiohackbox/radio"

// FrameStore is an ordered, append only list of captured frames. It has a
// single writer at a time (the active mode), so it does no locking.
type FrameStore struct {
	frames []radio.Frame
}

func New() *FrameStore {
	return &FrameStore{}
}

func (s *FrameStore) Append(f radio.Frame) {
	s.frames = append(s.frames, f)
}

// Clear empties the store, a new recording session starts from scratch.
func (s *FrameStore) Clear() {
	s.frames = nil
}

func (s *FrameStore) Len() int {
	return len(s.frames)
}

// Frames returns a copy of the stored sequence.
func (s *FrameStore) Frames() []radio.Frame {
	res := make([]radio.Frame, len(s.frames))
	copy(res, s.frames)
	return res
}



// Dedupe removes duplicates (retransmissions) while preserving the order of
// first occurrences. Frames are equal if their bytes are equal.
func Dedupe(frames []radio.Frame) []radio.Frame {
	seen := make(map[string]struct{}, len(frames))
	res := make([]radio.Frame, 0, len(frames))
	for _, f := range frames {
		k := string(f.Data)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		res = append(res, f)
	}
	return res
}
