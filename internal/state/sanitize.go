package state

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Decode parses a persisted state blob, recovering field by field. Malformed
// tabs, messages and matches are dropped silently; recoverable fields fall
// back to defaults. It returns nil when the blob is absent, unparseable, or
// yields no surviving tabs — callers substitute a fresh default state.
//
// Decode is idempotent: feeding its output back through produces an
// identical state. The persisted schema carries no version field, so this
// per-field recovery is the only migration mechanism.
func Decode(raw []byte, now time.Time) *AppState {
	if len(raw) == 0 {
		return nil
	}

	var top struct {
		Tabs        json.RawMessage `json:"tabs"`
		ActiveTabID json.RawMessage `json:"activeTabId"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil
	}

	var rawTabs []json.RawMessage
	if err := json.Unmarshal(top.Tabs, &rawTabs); err != nil || len(rawTabs) == 0 {
		return nil
	}

	st := &AppState{}
	seen := make(map[string]struct{})
	for _, rt := range rawTabs {
		tab := decodeTab(rt, len(st.Tabs), now)
		if tab == nil {
			continue
		}
		// Tabs are unique by id; keep the first occurrence.
		if _, dup := seen[tab.ID]; dup {
			continue
		}
		seen[tab.ID] = struct{}{}
		st.Tabs = append(st.Tabs, tab)
	}
	if len(st.Tabs) == 0 {
		return nil
	}

	var active string
	_ = json.Unmarshal(top.ActiveTabID, &active)
	if _, ok := seen[active]; !ok {
		active = st.Tabs[0].ID
	}
	st.ActiveTabID = active
	return st
}

// decodeTab sanitizes one candidate tab. idx is the tab's position in the
// surviving order, used for the numeric title fallback.
func decodeTab(raw json.RawMessage, idx int, now time.Time) *Session {
	var rt struct {
		ID              json.RawMessage `json:"id"`
		Title           json.RawMessage `json:"title"`
		CreatedAt       json.RawMessage `json:"createdAt"`
		UpdatedAt       json.RawMessage `json:"updatedAt"`
		Messages        json.RawMessage `json:"messages"`
		Matches         json.RawMessage `json:"matches"`
		ActiveCaseIndex json.RawMessage `json:"activeCaseIndex"`
	}
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil
	}

	// Entries without a string id are unaddressable and dropped outright.
	var id string
	if err := json.Unmarshal(rt.ID, &id); err != nil || id == "" {
		return nil
	}

	s := &Session{
		ID:        id,
		CreatedAt: decodeMillis(rt.CreatedAt, now),
		UpdatedAt: decodeMillis(rt.UpdatedAt, now),
		Messages:  decodeMessages(rt.Messages),
		Matches:   decodeMatches(rt.Matches),
	}

	var title string
	_ = json.Unmarshal(rt.Title, &title)
	s.Title = NormalizeTitle(title, DefaultTitle(idx+1))

	var fidx float64
	if err := json.Unmarshal(rt.ActiveCaseIndex, &fidx); err == nil &&
		fidx >= 0 && fidx == math.Trunc(fidx) && int(fidx) < len(s.Matches) {
		s.ActiveCaseIndex = int(fidx)
	}
	return s
}

func decodeMillis(raw json.RawMessage, now time.Time) int64 {
	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil || ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return now.UnixMilli()
	}
	return int64(ms)
}

func decodeMessages(raw json.RawMessage) []Message {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Message{}
	}
	msgs := make([]Message, 0, len(items))
	for _, it := range items {
		var rm struct {
			Kind json.RawMessage `json:"kind"`
			Text json.RawMessage `json:"text"`
		}
		if err := json.Unmarshal(it, &rm); err != nil {
			continue
		}
		// Both fields must be present and strings; absent text is as
		// malformed as a numeric one.
		var kind Kind
		if err := json.Unmarshal(rm.Kind, &kind); err != nil {
			continue
		}
		var text string
		if err := json.Unmarshal(rm.Text, &text); err != nil {
			continue
		}
		switch kind {
		case KindUser, KindBot, KindSystem:
			msgs = append(msgs, Message{Kind: kind, Text: text})
		}
	}
	return msgs
}

func decodeMatches(raw json.RawMessage) []CaseRecord {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []CaseRecord{}
	}
	matches := make([]CaseRecord, 0, len(items))
	for _, it := range items {
		var c CaseRecord
		if err := json.Unmarshal(it, &c); err != nil {
			continue
		}
		matches = append(matches, c)
	}
	return matches
}

// DefaultTitle returns the numeric default label for the n-th session.
func DefaultTitle(n int) string {
	return fmt.Sprintf("Chat %d", n)
}

// NormalizeTitle collapses whitespace, trims, and truncates text to
// MaxTitleLen runes, falling back to fallback when nothing survives.
// Truncation cannot leave a trailing space: the result must survive
// re-normalization unchanged.
func NormalizeTitle(text, fallback string) string {
	norm := strings.Join(strings.Fields(text), " ")
	if norm == "" {
		return fallback
	}
	if r := []rune(norm); len(r) > MaxTitleLen {
		return strings.TrimRight(string(r[:MaxTitleLen]), " ")
	}
	return norm
}
