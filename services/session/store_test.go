package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"centromedico/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(idle time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)}
	return NewStore(idle, WithClock(clock.Now)), clock
}

func TestGetOrCreateInitialisesOnce(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	calls := 0
	init := func(sess *models.CallSession) {
		calls++
		sess.OutOfHours = true
	}

	first := s.GetOrCreate("CA1", "+390881000000", init)
	second := s.GetOrCreate("CA1", "+390881000000", init)

	if calls != 1 {
		t.Fatalf("init ran %d times, want 1", calls)
	}
	if !first.OutOfHours || !second.OutOfHours {
		t.Fatalf("out-of-hours flag not latched: %+v %+v", first, second)
	}
	if first.CallerNumber != "+390881000000" || len(first.Turns) != 0 {
		t.Fatalf("unexpected new session: %+v", first)
	}
}

func TestAppendTurnPreservesOrder(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.GetOrCreate("CA1", "", nil)

	if err := s.AppendTurn("CA1",
		models.Turn{Role: models.RoleCaller, Text: "buongiorno"},
		models.Turn{Role: models.RoleAssistant, Text: "come posso aiutarla?"},
	); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	if err := s.AppendTurn("CA1", models.Turn{Role: models.RoleCaller, Text: "vorrei prenotare"}); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}

	sess, ok := s.Get("CA1")
	if !ok {
		t.Fatal("session missing")
	}
	want := []string{"buongiorno", "come posso aiutarla?", "vorrei prenotare"}
	if len(sess.Turns) != len(want) {
		t.Fatalf("got %d turns, want %d", len(sess.Turns), len(want))
	}
	for i, w := range want {
		if sess.Turns[i].Text != w {
			t.Errorf("turn %d = %q, want %q", i, sess.Turns[i].Text, w)
		}
	}
}

func TestReturnedSessionIsACopy(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.GetOrCreate("CA1", "", nil)
	_ = s.AppendTurn("CA1", models.Turn{Role: models.RoleCaller, Text: "ciao"})

	sess, _ := s.Get("CA1")
	sess.Turns[0].Text = "modified"
	sess.BookingInProgress = true

	again, _ := s.Get("CA1")
	if again.Turns[0].Text != "ciao" || again.BookingInProgress {
		t.Fatalf("store was mutated through a returned copy: %+v", again)
	}
}

func TestUpdateUnknownSession(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	_, err := s.Update("missing", func(*models.CallSession) error { return nil })
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if err := s.AppendTurn("missing", models.Turn{Text: "x"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("AppendTurn err = %v, want ErrSessionNotFound", err)
	}
}

func TestUpdatePropagatesError(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.GetOrCreate("CA1", "", nil)
	boom := errors.New("boom")
	if _, err := s.Update("CA1", func(*models.CallSession) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestExpiredSessionIsAbsentAndReplaced(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	s.GetOrCreate("CA1", "", nil)
	_ = s.AppendTurn("CA1", models.Turn{Text: "old"})

	clock.Advance(2 * time.Minute)
	if _, ok := s.Get("CA1"); ok {
		t.Fatal("expired session still returned")
	}
	fresh := s.GetOrCreate("CA1", "", nil)
	if len(fresh.Turns) != 0 {
		t.Fatalf("expired session reused: %+v", fresh)
	}
}

func TestActivityExtendsLifetime(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	s.GetOrCreate("CA1", "", nil)
	for i := 0; i < 5; i++ {
		clock.Advance(40 * time.Second)
		if err := s.AppendTurn("CA1", models.Turn{Text: "still here"}); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if _, ok := s.Get("CA1"); !ok {
		t.Fatal("active session expired")
	}
}

func TestSweepRemovesOnlyIdleSessions(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	s.GetOrCreate("idle", "", nil)
	clock.Advance(50 * time.Second)
	s.GetOrCreate("busy", "", nil)
	clock.Advance(20 * time.Second)

	if n := s.Sweep(clock.Now()); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if _, ok := s.Get("busy"); !ok {
		t.Fatal("recent session was swept")
	}
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.GetOrCreate("CA1", "", nil)
	s.Remove("CA1")
	s.Remove("CA1")
	if _, ok := s.Get("CA1"); ok {
		t.Fatal("removed session still present")
	}
	if _, err := s.Update("CA1", func(*models.CallSession) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Update after Remove: %v", err)
	}
}

func TestActiveListsOldestFirst(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	s.GetOrCreate("first", "+391", nil)
	clock.Advance(time.Second)
	s.GetOrCreate("second", "+392", nil)

	active := s.Active()
	if len(active) != 2 || active[0].CallID != "first" || active[1].CallID != "second" {
		t.Fatalf("unexpected active list: %+v", active)
	}
}

func TestConcurrentCallsAndSweeps(t *testing.T) {
	s := NewStore(time.Hour)
	const calls = 32
	const turns = 50

	var wg sync.WaitGroup
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				s.Sweep(time.Now())
				s.Active()
			}
		}
	}()

	for c := 0; c < calls; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			id := fmt.Sprintf("CA%d", c)
			s.GetOrCreate(id, "", nil)
			for i := 0; i < turns; i++ {
				if err := s.AppendTurn(id, models.Turn{Role: models.RoleCaller, Text: fmt.Sprint(i)}); err != nil {
					t.Errorf("%s turn %d: %v", id, i, err)
					return
				}
			}
		}(c)
	}
	wg.Wait()
	close(stop)

	for c := 0; c < calls; c++ {
		sess, ok := s.Get(fmt.Sprintf("CA%d", c))
		if !ok {
			t.Fatalf("CA%d missing", c)
		}
		if len(sess.Turns) != turns {
			t.Fatalf("CA%d has %d turns, want %d", c, len(sess.Turns), turns)
		}
		for i, turn := range sess.Turns {
			if turn.Text != fmt.Sprint(i) {
				t.Fatalf("CA%d turn %d = %q", c, i, turn.Text)
			}
		}
	}
}
