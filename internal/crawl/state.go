package crawl

// state tracks one crawl invocation: the dedup set, the pagination
// cursor and the request/acceptance counters. It is owned exclusively
// by the invocation's fetch loop and discarded when Run returns, so no
// synchronization is needed.
type state struct {
	seen            map[string]struct{}
	accepted        int
	cursor          string
	lastGoodCursor  string
	requests        int
	emptyPageStreak int
}

func newState() *state {
	return &state{seen: make(map[string]struct{})}
}

// markSeen records the identifier and reports whether it was new.
func (s *state) markSeen(id string) bool {
	if _, dup := s.seen[id]; dup {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}
