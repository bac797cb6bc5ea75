package middleware

import "time"

// SetClock replaces the store clock.
func (s *MemoryRateLimitStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
