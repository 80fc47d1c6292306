package state

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// newTestStore opens a store on a fresh memory slot with deterministic ids
// and clock.
func newTestStore(t *testing.T) (*Store, *MemorySlot) {
	t.Helper()
	slot := &MemorySlot{}
	s := Open(slot, nil)
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	s.now = func() time.Time { return testNow }
	return s, slot
}

func TestOpen_FreshDefault(t *testing.T) {
	t.Parallel()

	s, slot := newTestStore(t)
	tabs := s.Tabs()
	if len(tabs) != 1 {
		t.Fatalf("expected 1 seeded tab, got %d", len(tabs))
	}
	tab := tabs[0]
	if tab.Title != "Chat 1" {
		t.Errorf("expected default title, got %q", tab.Title)
	}
	if len(tab.Messages) != 1 || tab.Messages[0].Kind != KindBot || tab.Messages[0].Text != OnboardingPrompt {
		t.Errorf("expected onboarding message seed, got %+v", tab.Messages)
	}
	if s.State().ActiveTabID != tab.ID {
		t.Errorf("seeded tab not active")
	}
	if slot.Saves == 0 {
		t.Error("expected the default state to be persisted on open")
	}
}

func TestOpen_ResumesPersistedState(t *testing.T) {
	t.Parallel()

	s1, slot := newTestStore(t)
	s1.CreateSession("follow-up")
	s1.AppendMessage(s1.ActiveSession(), KindUser, "still dizzy")

	s2 := Open(slot, nil)
	if diff := cmp.Diff(s1.State(), s2.State()); diff != "" {
		t.Errorf("reload diverged from live state (-live +reloaded):\n%s", diff)
	}
}

func TestCreateSession(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	sess, regions := s.CreateSession("")
	if sess.Title != "Chat 2" {
		t.Errorf("expected numeric default title, got %q", sess.Title)
	}
	if s.Tabs()[0] != sess {
		t.Error("new tab should be inserted at the front")
	}
	if s.State().ActiveTabID != sess.ID {
		t.Error("new tab should become active")
	}
	if regions != RegionAll {
		t.Errorf("expected RegionAll, got %v", regions)
	}

	named, _ := s.CreateSession("intake")
	if named.Title != "intake" {
		t.Errorf("explicit title dropped, got %q", named.Title)
	}
}

func TestSelectSession(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	first := s.Tabs()[0]
	s.CreateSession("")

	if regions := s.SelectSession("nope"); regions != 0 {
		t.Errorf("unknown id should be a no-op, got regions %v", regions)
	}
	if regions := s.SelectSession(first.ID); regions != RegionAll {
		t.Errorf("expected RegionAll, got %v", regions)
	}
	if s.State().ActiveTabID != first.ID {
		t.Error("selection did not take")
	}
}

func TestDeleteSession_ActiveReselection(t *testing.T) {
	t.Parallel()

	// Tabs end up newest-first: [c, b, a].
	s, _ := newTestStore(t)
	a := s.Tabs()[0]
	b, _ := s.CreateSession("b")
	c, _ := s.CreateSession("c")

	// Deleting the active head keeps index 0 active.
	s.DeleteSession(c.ID)
	if got := s.State().ActiveTabID; got != b.ID {
		t.Errorf("expected same-index tab %q active, got %q", b.ID, got)
	}

	// Deleting the active last tab falls back to the previous index.
	s.SelectSession(a.ID)
	s.DeleteSession(a.ID)
	if got := s.State().ActiveTabID; got != b.ID {
		t.Errorf("expected previous tab %q active, got %q", b.ID, got)
	}
}

func TestDeleteSession_InactiveKeepsActive(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	a := s.Tabs()[0]
	b, _ := s.CreateSession("b")

	s.DeleteSession(a.ID)
	if got := s.State().ActiveTabID; got != b.ID {
		t.Errorf("active tab changed by deleting an inactive tab: %q", got)
	}
}

func TestDeleteSession_LastTabReseeds(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	sole := s.Tabs()[0]
	s.AppendMessage(sole, KindUser, "hello")

	s.DeleteSession(sole.ID)
	tabs := s.Tabs()
	if len(tabs) != 1 {
		t.Fatalf("expected a fresh seeded tab, got %d tabs", len(tabs))
	}
	fresh := tabs[0]
	if fresh.ID == sole.ID {
		t.Error("expected a new session, got the deleted one back")
	}
	if fresh.Title != "Chat 1" {
		t.Errorf("expected default title, got %q", fresh.Title)
	}
	if len(fresh.Messages) != 1 || fresh.Messages[0].Text != OnboardingPrompt {
		t.Errorf("expected onboarding seed, got %+v", fresh.Messages)
	}
	if s.State().ActiveTabID != fresh.ID {
		t.Error("fresh tab should be active")
	}
}

func TestDeleteSession_UnknownID(t *testing.T) {
	t.Parallel()

	s, slot := newTestStore(t)
	saves := slot.Saves
	if regions := s.DeleteSession("nope"); regions != 0 {
		t.Errorf("unknown id should be a no-op, got regions %v", regions)
	}
	if slot.Saves != saves {
		t.Error("no-op delete should not persist")
	}
}

func TestTabsNeverEmpty(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	for i := 0; i < 40; i++ {
		if i%3 == 0 {
			s.CreateSession("")
		} else {
			s.DeleteSession(s.ActiveSession().ID)
		}
		if len(s.Tabs()) == 0 {
			t.Fatalf("tab list empty after op %d", i)
		}
		if s.ActiveSession() == nil {
			t.Fatalf("active session unresolvable after op %d", i)
		}
	}
}

func TestAppendMessage_FirstUserTurnClaimsTitle(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	sess := s.ActiveSession()

	regions := s.AppendMessage(sess, KindUser, "  I have a   headache\nand nausea ")
	if sess.Title != "I have a headache and nausea" {
		t.Errorf("expected normalized title, got %q", sess.Title)
	}
	if !regions.Has(RegionTabs) || !regions.Has(RegionChat) {
		t.Errorf("expected chat and tabs regions, got %v", regions)
	}

	s.AppendMessage(sess, KindUser, "it started yesterday")
	if sess.Title != "I have a headache and nausea" {
		t.Errorf("second user turn re-claimed the title: %q", sess.Title)
	}
}

func TestAppendMessage_TitleTruncation(t *testing.T) {
	t.Parallel()

	s, slot := newTestStore(t)
	sess := s.ActiveSession()
	long := strings.Repeat("pain ", 20)
	s.AppendMessage(sess, KindUser, long)
	if got := []rune(sess.Title); len(got) > MaxTitleLen {
		t.Errorf("title longer than %d runes: %d (%q)", MaxTitleLen, len(got), string(got))
	}
	if strings.HasSuffix(sess.Title, " ") {
		t.Errorf("truncated title ends on a space: %q", sess.Title)
	}

	// A truncated title must survive persistence unchanged; re-normalizing
	// on load must not shave anything further off.
	reloaded := Open(slot, nil)
	if diff := cmp.Diff(s.State(), reloaded.State()); diff != "" {
		t.Errorf("state diverged after reload (-live +reloaded):\n%s", diff)
	}
}

func TestAppendMessage_NonUserTurnsDoNotClaimTitle(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	sess := s.ActiveSession()

	s.AppendMessage(sess, KindSystem, "Error: backend unavailable")
	s.AppendMessage(sess, KindBot, "Please describe your symptoms.")
	if sess.Title != "Chat 1" {
		t.Errorf("non-user turn claimed the title: %q", sess.Title)
	}

	s.AppendMessage(sess, KindUser, "chest pain")
	if sess.Title != "chest pain" {
		t.Errorf("first user turn should still claim the title, got %q", sess.Title)
	}
}

func TestAppendMessage_UpdatesTimestampAndPersists(t *testing.T) {
	t.Parallel()

	s, slot := newTestStore(t)
	sess := s.ActiveSession()
	saves := slot.Saves

	s.AppendMessage(sess, KindUser, "hi")
	if sess.UpdatedAt != testNow.UnixMilli() {
		t.Errorf("updatedAt not refreshed: %d", sess.UpdatedAt)
	}
	if slot.Saves != saves+1 {
		t.Errorf("expected exactly one save, got %d", slot.Saves-saves)
	}
}

func TestReplaceMatches(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	sess := s.ActiveSession()
	sess.ActiveCaseIndex = 2

	regions := s.ReplaceMatches(sess, []CaseRecord{
		{EncounterID: "E1", Score: 0.9},
		{EncounterID: "E2", Score: 0.7},
	})
	if len(sess.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(sess.Matches))
	}
	if sess.ActiveCaseIndex != 0 {
		t.Errorf("replace should reset the highlighted case, got %d", sess.ActiveCaseIndex)
	}
	if !regions.Has(RegionCases) || !regions.Has(RegionDetail) {
		t.Errorf("expected cases and detail regions, got %v", regions)
	}

	s.ReplaceMatches(sess, nil)
	if sess.Matches == nil || len(sess.Matches) != 0 {
		t.Errorf("nil matches should become an empty list, got %#v", sess.Matches)
	}
}

func TestSelectCase(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	sess := s.ActiveSession()
	s.ReplaceMatches(sess, []CaseRecord{{EncounterID: "E1"}, {EncounterID: "E2"}})

	if regions := s.SelectCase(sess, 1); regions == 0 || sess.ActiveCaseIndex != 1 {
		t.Errorf("valid selection rejected: regions %v index %d", regions, sess.ActiveCaseIndex)
	}
	for _, idx := range []int{-1, 2, 99} {
		if regions := s.SelectCase(sess, idx); regions != 0 {
			t.Errorf("out-of-range index %d accepted, regions %v", idx, regions)
		}
		if sess.ActiveCaseIndex != 1 {
			t.Errorf("out-of-range index %d changed selection to %d", idx, sess.ActiveCaseIndex)
		}
	}
}

func TestActiveCase_FallsBackToFirst(t *testing.T) {
	t.Parallel()

	sess := &Session{Matches: []CaseRecord{{EncounterID: "E1"}, {EncounterID: "E2"}}, ActiveCaseIndex: 5}
	c, ok := sess.ActiveCase()
	if !ok || c.EncounterID != "E1" {
		t.Errorf("expected fallback to first record, got %+v ok=%v", c, ok)
	}

	empty := &Session{}
	if _, ok := empty.ActiveCase(); ok {
		t.Error("expected ok=false with no matches")
	}
}
