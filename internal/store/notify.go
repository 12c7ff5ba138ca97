package store

// Table identifies which table a change notification refers to.
type Table string

const (
	TableTags           Table = "tags"
	TableActiveSessions Table = "active_sessions"
	TableStudySessions  Table = "study_sessions"
	TableSolvedProblems Table = "solved_problems"
)

// Change is an opaque "something changed" signal. Consumers treat any signal
// as cause for a full reload, never as a diff to merge.
type Change struct {
	UserID string
	Table  Table
}

type subscriber struct {
	userID string
	ch     chan Change
}

// Subscribe returns a channel of change signals for the given user and a
// cancel function. The channel is buffered; signals are dropped rather than
// blocking a write path on a slow consumer.
func (s *Store) Subscribe(userID string) (<-chan Change, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++

	sub := &subscriber{userID: userID, ch: make(chan Change, 16)}
	s.subs[id] = sub

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

func (s *Store) notify(userID string, table Table) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subs {
		if sub.userID != userID {
			continue
		}
		select {
		case sub.ch <- Change{UserID: userID, Table: table}:
		default:
			s.logger.Warn().Str("table", string(table)).Msg("dropped change notification")
		}
	}
}

func (s *Store) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
	}
}
