// Package state holds the multi-session conversation model: the ordered set
// of chat tabs, per-tab message history and case matches, and the persistence
// machinery that mirrors every mutation to a durable slot.
package state

// Kind tags a chat turn by its author.
type Kind string

const (
	KindUser   Kind = "user"
	KindBot    Kind = "bot"
	KindSystem Kind = "system"
)

// OnboardingPrompt is the assistant message seeded into every new session.
const OnboardingPrompt = "Hello! I'm the MedBot assistant. Describe your symptoms or ask a question, " +
	"and I'll answer with similar de-identified cases shown alongside my reply."

// MaxTitleLen caps session titles derived from the first user message.
const MaxTitleLen = 40

// Message is a single chat turn. Turns are append-only: they are never
// edited or removed once added to a session.
type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// CaseRecord is one retrieved reference case returned by the backend
// alongside a chat reply.
type CaseRecord struct {
	EncounterID    string  `json:"encounter_id"`
	ChiefComplaint string  `json:"chief_complaint"`
	FinalDx        string  `json:"final_dx"`
	Score          float64 `json:"score"`
	Summary        string  `json:"summary"`
	ChunkText      string  `json:"chunk_text,omitempty"`
	ChunkExcerpt   string  `json:"chunk_excerpt,omitempty"`
}

// EncounterLabel returns the encounter id or the "N/A" placeholder.
func (c CaseRecord) EncounterLabel() string { return orNA(c.EncounterID) }

// ComplaintLabel returns the chief complaint or the "N/A" placeholder.
func (c CaseRecord) ComplaintLabel() string { return orNA(c.ChiefComplaint) }

// DiagnosisLabel returns the final diagnosis or the "N/A" placeholder.
func (c CaseRecord) DiagnosisLabel() string { return orNA(c.FinalDx) }

// SummaryLabel returns the summary or its fixed fallback text.
func (c CaseRecord) SummaryLabel() string {
	if c.Summary == "" {
		return "No summary available."
	}
	return c.Summary
}

// Excerpt returns the longer source-encounter excerpt when the backend
// supplied one, preferring chunk_text over chunk_excerpt.
func (c CaseRecord) Excerpt() string {
	if c.ChunkText != "" {
		return c.ChunkText
	}
	return c.ChunkExcerpt
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Session is one independent conversation tab.
type Session struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// CreatedAt and UpdatedAt are Unix milliseconds, matching the wire
	// format of the persisted blob.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`

	Messages []Message `json:"messages"`
	// Matches is replaced wholesale on each exchange, never merged.
	Matches         []CaseRecord `json:"matches"`
	ActiveCaseIndex int          `json:"activeCaseIndex"`
}

// HasUserMessage reports whether any user turn has been appended yet.
// The session title is claimed exactly once, by the first user turn.
func (s *Session) HasUserMessage() bool {
	for _, m := range s.Messages {
		if m.Kind == KindUser {
			return true
		}
	}
	return false
}

// ActiveCase returns the case shown in the detail pane: the record at
// ActiveCaseIndex, or the first record if that index is currently invalid.
// ok is false when the session has no matches at all.
func (s *Session) ActiveCase() (CaseRecord, bool) {
	if len(s.Matches) == 0 {
		return CaseRecord{}, false
	}
	if s.ActiveCaseIndex < 0 || s.ActiveCaseIndex >= len(s.Matches) {
		return s.Matches[0], true
	}
	return s.Matches[s.ActiveCaseIndex], true
}

// AppState is the whole persisted application state: every tab plus which
// one is active. Tab order is newest-first for created tabs; stored order
// is preserved on load.
type AppState struct {
	Tabs        []*Session `json:"tabs"`
	ActiveTabID string     `json:"activeTabId"`
}
