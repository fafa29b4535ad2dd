package monitor

// SeenSet tracks clip ids that have already been delivered (or were pre-seeded
// as known at startup). It grows for the life of the process and never shrinks.
// The poller is its only writer.
type SeenSet struct {
	ids map[string]struct{}
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Contains reports whether id has been recorded.
func (s *SeenSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add records id. Adding an already-present id is a no-op.
func (s *SeenSet) Add(id string) {
	s.ids[id] = struct{}{}
}

// Seed records every id in ids. Used once at startup to suppress the backlog
// inside the initial lookback window.
func (s *SeenSet) Seed(ids []string) {
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Len returns the number of recorded ids.
func (s *SeenSet) Len() int {
	return len(s.ids)
}
