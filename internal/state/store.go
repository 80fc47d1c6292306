package state

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Regions is a bitmask of view regions affected by a mutation. The render
// layer may re-render everything; the mask records what actually changed.
type Regions uint8

const (
	RegionTabs Regions = 1 << iota
	RegionChat
	RegionCases
	RegionDetail

	RegionAll = RegionTabs | RegionChat | RegionCases | RegionDetail
)

// Has reports whether r includes the given region.
func (r Regions) Has(region Regions) bool { return r&region != 0 }

// Store owns the in-memory AppState and mirrors every mutation to its Slot
// before returning. It is not safe for concurrent use; the TUI event loop
// is the single caller.
type Store struct {
	slot  Slot
	log   *zap.Logger
	state *AppState

	now   func() time.Time
	newID func() string
}

// Open loads and sanitizes the persisted state from slot, falling back to a
// fresh default state (one seeded session) when the blob is absent, corrupt,
// or yields no surviving tabs. Storage problems are logged, never surfaced.
func Open(slot Slot, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		slot:  slot,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}

	raw, err := slot.Load()
	if err != nil {
		s.log.Warn("state load failed, starting fresh", zap.Error(err))
		raw = nil
	}
	if st := Decode(raw, s.now()); st != nil {
		s.state = st
	} else {
		s.state = s.defaultState()
	}
	s.persist()
	return s
}

// State exposes the current application state for rendering. Callers must
// not mutate it.
func (s *Store) State() *AppState { return s.state }

// Tabs returns the ordered session list.
func (s *Store) Tabs() []*Session { return s.state.Tabs }

// Session returns the session with the given id, or nil.
func (s *Store) Session(id string) *Session {
	for _, t := range s.state.Tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// ActiveSession resolves the active tab, falling back to the first tab if
// the active id dangles. The invariants make the fallback unreachable; it
// guards rendering anyway.
func (s *Store) ActiveSession() *Session {
	if t := s.Session(s.state.ActiveTabID); t != nil {
		return t
	}
	return s.state.Tabs[0]
}

// CreateSession builds a new session seeded with the onboarding message,
// inserts it at the front of the tab list, and makes it active. An empty
// title selects the numeric default.
func (s *Store) CreateSession(title string) (*Session, Regions) {
	if title == "" {
		title = DefaultTitle(len(s.state.Tabs) + 1)
	}
	sess := s.newSession(title)
	s.state.Tabs = append([]*Session{sess}, s.state.Tabs...)
	s.state.ActiveTabID = sess.ID
	s.persist()
	return sess, RegionAll
}

// SelectSession makes the given tab active. Unknown ids are a no-op.
func (s *Store) SelectSession(id string) Regions {
	if s.Session(id) == nil {
		return 0
	}
	s.state.ActiveTabID = id
	s.persist()
	return RegionAll
}

// DeleteSession removes a tab. When the active tab is deleted, the tab now
// occupying the same index becomes active (the previous index if the
// deleted tab was last). Deleting the sole remaining tab recreates a fresh
// default session, so the tab list is never empty.
func (s *Store) DeleteSession(id string) Regions {
	idx := -1
	for i, t := range s.state.Tabs {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0
	}

	wasActive := s.state.ActiveTabID == id
	s.state.Tabs = append(s.state.Tabs[:idx], s.state.Tabs[idx+1:]...)

	if len(s.state.Tabs) == 0 {
		sess := s.newSession(DefaultTitle(1))
		s.state.Tabs = []*Session{sess}
		s.state.ActiveTabID = sess.ID
	} else if wasActive {
		if idx >= len(s.state.Tabs) {
			idx = len(s.state.Tabs) - 1
		}
		s.state.ActiveTabID = s.state.Tabs[idx].ID
	}
	s.persist()
	return RegionAll
}

// AppendMessage appends one turn to a session's ledger. The first user turn
// claims the session title: the normalized, truncated message text replaces
// the numeric default exactly once.
func (s *Store) AppendMessage(sess *Session, kind Kind, text string) Regions {
	if kind == KindUser && !sess.HasUserMessage() {
		sess.Title = NormalizeTitle(text, sess.Title)
	}
	sess.Messages = append(sess.Messages, Message{Kind: kind, Text: text})
	sess.UpdatedAt = s.now().UnixMilli()
	s.persist()
	return RegionChat | RegionTabs
}

// ReplaceMatches swaps in a new set of case records wholesale and resets
// the highlighted case to the first entry.
func (s *Store) ReplaceMatches(sess *Session, matches []CaseRecord) Regions {
	if matches == nil {
		matches = []CaseRecord{}
	}
	sess.Matches = matches
	sess.ActiveCaseIndex = 0
	sess.UpdatedAt = s.now().UnixMilli()
	s.persist()
	return RegionCases | RegionDetail
}

// SelectCase highlights the case at index. Out-of-range indexes are a
// no-op, leaving the prior selection unchanged.
func (s *Store) SelectCase(sess *Session, index int) Regions {
	if index < 0 || index >= len(sess.Matches) {
		return 0
	}
	sess.ActiveCaseIndex = index
	s.persist()
	return RegionCases | RegionDetail
}

func (s *Store) newSession(title string) *Session {
	now := s.now().UnixMilli()
	return &Session{
		ID:        s.newID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{{Kind: KindBot, Text: OnboardingPrompt}},
		Matches:   []CaseRecord{},
	}
}

func (s *Store) defaultState() *AppState {
	sess := s.newSession(DefaultTitle(1))
	return &AppState{
		Tabs:        []*Session{sess},
		ActiveTabID: sess.ID,
	}
}

// persist writes the whole state back to the slot. It runs synchronously
// after every mutation so a reload at any point reflects the last completed
// action. Failures are logged and swallowed: persistence problems must not
// break the conversation.
func (s *Store) persist() {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		s.log.Error("state marshal failed", zap.Error(err))
		return
	}
	if err := s.slot.Save(data); err != nil {
		s.log.Warn("state save failed", zap.Error(err))
	}
}
