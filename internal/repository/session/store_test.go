package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

func users(turns []domain.Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.User
	}
	return out
}

func TestAppend_EvictsOldestBeyondWindow(t *testing.T) {
	s := NewStore(2)
	s.Append("s1", "q1", "a1")
	s.Append("s1", "q2", "a2")
	s.Append("s1", "q3", "a3")

	got := s.Get("s1")
	if want := []string{"q2", "q3"}; !slices.Equal(users(got), want) {
		t.Errorf("turns = %v, want %v", users(got), want)
	}
	if got[1].Assistant != "a3" {
		t.Errorf("assistant = %q", got[1].Assistant)
	}
}

func TestNewStore_DefaultSize(t *testing.T) {
	s := NewStore(0)
	if s.WindowSize() != DefaultWindowSize {
		t.Fatalf("size = %d", s.WindowSize())
	}
	for i := 0; i < 8; i++ {
		s.Append("x", fmt.Sprintf("q%d", i), "")
	}
	if got := s.Get("x"); len(got) != 5 || got[0].User != "q3" {
		t.Errorf("turns = %v", users(got))
	}
}

func TestGet_CreatesEmptyAndCopies(t *testing.T) {
	s := NewStore(3)
	if got := s.Get("new"); len(got) != 0 {
		t.Fatalf("new session has %d turns", len(got))
	}
	if !slices.Contains(s.List(), "new") {
		t.Error("Get should create the session")
	}

	s.Append("new", "q", "a")
	got := s.Get("new")
	got[0].User = "mutated"
	if s.Get("new")[0].User != "q" {
		t.Error("Get must return a copy")
	}
}

func TestAppend_Timestamps(t *testing.T) {
	s := NewStore(3)
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }
	s.Append("s", "q", "a")
	if got := s.Get("s")[0].At; !got.Equal(at) {
		t.Errorf("At = %v", got)
	}
}

func TestLookup(t *testing.T) {
	s := NewStore(3)
	if _, err := s.Lookup("nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	s.Append("yes", "q", "a")
	turns, err := s.Lookup("yes")
	if err != nil || len(turns) != 1 {
		t.Errorf("Lookup = %v, %v", turns, err)
	}
	if slices.Contains(s.List(), "nope") {
		t.Error("Lookup must not create sessions")
	}
}

func TestClearAndList(t *testing.T) {
	s := NewStore(3)
	s.Append("b", "q", "a")
	s.Append("a", "q", "a")
	s.Append("c", "q", "a")

	if want := []string{"a", "b", "c"}; !slices.Equal(s.List(), want) {
		t.Errorf("List = %v, want %v", s.List(), want)
	}
	if !s.Clear("b") {
		t.Error("Clear(b) = false")
	}
	if got := s.Get("b"); len(got) != 0 {
		t.Errorf("cleared window has %d turns", len(got))
	}
	if !s.Clear("b") {
		t.Error("second Clear(b) = false, session should still exist")
	}
	if want := []string{"a", "b", "c"}; !slices.Equal(s.List(), want) {
		t.Errorf("List = %v, want %v", s.List(), want)
	}
	if s.Clear("unknown") {
		t.Error("Clear(unknown) = true")
	}
	if slices.Contains(s.List(), "unknown") {
		t.Error("Clear must not create sessions")
	}
}

func TestClear_WaitsForExchangeAndKeepsLock(t *testing.T) {
	s := NewStore(5)
	s.Append("s1", "old", "")

	unlock := s.Lock("s1")

	cleared := make(chan struct{})
	go func() {
		s.Clear("s1")
		close(cleared)
	}()
	second := make(chan struct{})
	go func() {
		release := s.Lock("s1")
		close(second)
		release()
	}()

	select {
	case <-cleared:
		t.Fatal("Clear finished while an exchange held the session lock")
	case <-second:
		t.Fatal("second exchange ran while the first still held the session lock")
	case <-time.After(50 * time.Millisecond):
	}

	s.Append("s1", "in-flight", "")
	unlock()

	for _, ch := range []chan struct{}{cleared, second} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("blocked after the exchange released the lock")
		}
	}
	if got := s.Get("s1"); len(got) != 0 {
		t.Errorf("in-flight turn survived the clear: %v", users(got))
	}
	if !slices.Contains(s.List(), "s1") {
		t.Error("cleared session dropped from List")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewStore(2)
	s.Append("a", "qa", "")
	s.Append("b", "qb", "")
	if got := users(s.Get("a")); !slices.Equal(got, []string{"qa"}) {
		t.Errorf("a = %v", got)
	}
}

func TestLock_SerializesExchanges(t *testing.T) {
	s := NewStore(100)
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock("shared")
			defer unlock()
			// read-modify-write under the session lock: each exchange sees all prior ones
			before := len(s.Get("shared"))
			s.Append("shared", fmt.Sprintf("q%d-%d", i, before), "")
		}()
	}
	wg.Wait()

	turns := s.Get("shared")
	if len(turns) != n {
		t.Fatalf("turns = %d, want %d", len(turns), n)
	}
	for idx, turn := range turns {
		var g, before int
		if _, err := fmt.Sscanf(turn.User, "q%d-%d", &g, &before); err != nil {
			t.Fatalf("parse %q: %v", turn.User, err)
		}
		if before != idx {
			t.Errorf("turn %d observed %d prior turns", idx, before)
		}
	}
}

func TestLock_DifferentSessionsDoNotBlock(t *testing.T) {
	s := NewStore(5)
	unlockA := s.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := s.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}
