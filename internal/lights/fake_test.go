package lights

import (
	"errors"
	"image/color"
	"sync"
	"time"
)

type fakeStrip struct {
	lock    sync.Mutex
	n       int
	staged  []color.RGBA
	frames  [][]color.RGBA
	times   []time.Time
	failing bool
	shows   int
}

func newFakeStrip(n int) *fakeStrip {
	return &fakeStrip{n: n, staged: make([]color.RGBA, n)}
}

func (s *fakeStrip) Len() int {
	return s.n
}

func (s *fakeStrip) SetPixel(i int, c color.RGBA) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i < 0 || i >= s.n {
		return errors.New("pixel out of range")
	}
	s.staged[i] = c
	return nil
}

func (s *fakeStrip) Show() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.shows++
	if s.failing {
		return errors.New("strip unplugged")
	}
	frame := make([]color.RGBA, s.n)
	copy(frame, s.staged)
	s.frames = append(s.frames, frame)
	s.times = append(s.times, time.Now())
	return nil
}

func (s *fakeStrip) setFailing(failing bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failing = failing
}

func (s *fakeStrip) count() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.frames)
}

func (s *fakeStrip) snapshot() []Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]Frame, len(s.frames))
	for i, f := range s.frames {
		copy(out[i][:], f)
	}
	return out
}

func (s *fakeStrip) last() Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	var f Frame
	if len(s.frames) > 0 {
		copy(f[:], s.frames[len(s.frames)-1])
	}
	return f
}

func (s *fakeStrip) timestamps() []time.Time {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]time.Time, len(s.times))
	copy(out, s.times)
	return out
}
