package filesystem

import (
	"sync"
	"time"
)

// Stat holds the mutable metadata of a node. Structure (name, parent) is fixed
// at construction; only these fields change, through [Stat.Update].
type Stat struct {
	modTime time.Time
	size    int64
	mu      sync.RWMutex
}

func NewStat(modTime time.Time, size int64) *Stat {
	return &Stat{modTime: modTime, size: size}
}

// ModTime returns a thread-safe copy of the modification time
func (s *Stat) ModTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modTime
}

// Size returns the content length in bytes
func (s *Stat) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Update runs fn under the write lock for atomic modifications.
func (s *Stat) Update(fn func(modTime *time.Time, size *int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.modTime, &s.size)
}
