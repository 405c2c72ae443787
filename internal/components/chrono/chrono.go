package chrono

import (
	"sync"
	"time"
	_ "time/tzdata"
)

// API is where components read the current time from.
type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl reads the wall clock in the named IANA location, an
// empty name means the local time zone.
func NewStandardImpl(location string) (StandardImpl, error) {
	if location == "" {
		return StandardImpl{location: time.Local}, nil
	}
	loc, err := time.LoadLocation(location)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: loc}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.Location())
}

func (s StandardImpl) Location() *time.Location {
	if s.location == nil {
		return time.Local
	}
	return s.location
}

// SteppedImpl is a fake clock that moves forward by a fixed step every
// time it is read.
type SteppedImpl struct {
	mutex   sync.Mutex
	current time.Time
	step    time.Duration
}

func NewSteppedImpl(start time.Time, step time.Duration) *SteppedImpl {
	return &SteppedImpl{current: start, step: step}
}

func (s *SteppedImpl) Now() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := s.current
	s.current = s.current.Add(s.step)
	return now
}

func (s *SteppedImpl) Location() *time.Location {
	return s.current.Location()
}
