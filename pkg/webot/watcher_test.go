package webot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances virtual time on every sleep so watcher cycles run
// instantly in tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

func newTestWatcher(t *testing.T, opts WatcherOptions) (*Watcher, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	w := NewWatcher(opts, nil)
	w.now = clock.Now
	w.sleep = clock.Sleep
	return w, clock
}

// scriptPoller replays a fixed sequence of observations, repeating the
// last one once the script is exhausted.
func scriptPoller(script ...string) ContentPoller {
	i := 0
	return func() (string, error) {
		if i < len(script) {
			s := script[i]
			i++
			return s, nil
		}
		if len(script) == 0 {
			return "", nil
		}
		return script[len(script)-1], nil
	}
}

func TestWatcherCompletesOnStability(t *testing.T) {
	w, _ := newTestWatcher(t, WatcherOptions{})

	text, state := w.Wait(scriptPoller("H", "He", "Hello", "Hello", "Hello"), "")

	assert.Equal(t, Completed, state)
	assert.Equal(t, "Hello", text)
}

func TestWatcherIgnoresPreviousResponse(t *testing.T) {
	w, _ := newTestWatcher(t, WatcherOptions{})

	// The old reply is still on the page for the first polls.
	text, state := w.Wait(scriptPoller("old reply", "old reply", "fresh", "fresh", "fresh"), "old reply")

	assert.Equal(t, Completed, state)
	assert.Equal(t, "fresh", text)
}

func TestWatcherStartTimeoutEmpty(t *testing.T) {
	w, clock := newTestWatcher(t, WatcherOptions{StartTimeout: 3 * time.Second})
	start := clock.Now()

	text, state := w.Wait(scriptPoller(), "")

	assert.Equal(t, TimedOut, state)
	assert.Empty(t, text)
	assert.GreaterOrEqual(t, clock.Now().Sub(start), 3*time.Second)
}

func TestWatcherFinalCheckAfterStartTimeout(t *testing.T) {
	w, clock := newTestWatcher(t, WatcherOptions{StartTimeout: 2 * time.Second, PollInterval: time.Second})

	// Nothing during the start window, then the full short reply appears
	// exactly at the final direct check.
	calls := 0
	poll := func() (string, error) {
		calls++
		if clock.Now().Sub(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)) >= 2*time.Second {
			return "42", nil
		}
		return "", nil
	}

	text, state := w.Wait(poll, "")

	assert.Equal(t, Completed, state)
	assert.Equal(t, "42", text)
}

func TestWatcherGrowthResetsStability(t *testing.T) {
	w, _ := newTestWatcher(t, WatcherOptions{StableChecks: 2})

	// One stable check, then growth, then full stability. The early
	// stable check must not count toward the final threshold.
	text, state := w.Wait(scriptPoller(
		"part",
		"part",
		"part one",
		"part one two",
		"part one two",
		"part one two",
	), "")

	assert.Equal(t, Completed, state)
	assert.Equal(t, "part one two", text)
}

func TestWatcherShrinkReanchors(t *testing.T) {
	w, _ := newTestWatcher(t, WatcherOptions{})

	text, state := w.Wait(scriptPoller(
		"aaaaaaaaaa",
		"bbb",
		"bbbccc",
		"bbbccc",
		"bbbccc",
	), "")

	assert.Equal(t, Completed, state)
	assert.Equal(t, "bbbccc", text)
}

func TestWatcherClosingPhraseCompletesEarly(t *testing.T) {
	w, _ := newTestWatcher(t, WatcherOptions{
		StableChecks:   5,
		ClosingPhrases: []string{"-- end of answer --"},
	})

	// Only one unchanged observation, well below StableChecks, but the
	// closing phrase short-circuits the wait.
	text, state := w.Wait(scriptPoller(
		"thinking",
		"thinking done -- end of answer --",
		"thinking done -- end of answer --",
	), "")

	assert.Equal(t, Completed, state)
	assert.Contains(t, text, "-- end of answer --")
}

func TestWatcherClosingPhraseOnlySearchesTail(t *testing.T) {
	w, _ := newTestWatcher(t, WatcherOptions{ClosingPhrases: []string{"MARKER"}})

	// The marker sits far from the end, outside the trailing window.
	long := "MARKER"
	for i := 0; i < 400; i++ {
		long += "x"
	}
	assert.False(t, w.hasClosingPhrase(long))

	assert.True(t, w.hasClosingPhrase(long+"MARKER"))
}

func TestWatcherQuietPeriodCompletes(t *testing.T) {
	w, clock := newTestWatcher(t, WatcherOptions{
		StableChecks:   100, // never reached
		QuietPeriod:    4 * time.Second,
		StreamInterval: time.Second,
	})

	// The text alternates between two equal-length strings so the stable
	// counter keeps climbing slowly while nothing grows.
	flip := false
	poll := func() (string, error) {
		_ = clock
		flip = !flip
		if flip {
			return "abc", nil
		}
		return "xyz", nil
	}

	text, state := w.Wait(poll, "")

	assert.Equal(t, Completed, state)
	assert.Len(t, text, 3)
}

func TestWatcherMaxWaitReturnsPartial(t *testing.T) {
	w, _ := newTestWatcher(t, WatcherOptions{
		MaxWait:        5 * time.Second,
		StreamInterval: time.Second,
		QuietPeriod:    time.Hour,
		StableChecks:   1000,
	})

	// The reply grows forever and never stabilizes.
	text := "x"
	poll := func() (string, error) {
		text += "x"
		return text, nil
	}

	got, state := w.Wait(poll, "")

	assert.Equal(t, TimedOut, state)
	assert.NotEmpty(t, got)
}

func TestWatcherPollErrorsTreatedAsEmpty(t *testing.T) {
	w, _ := newTestWatcher(t, WatcherOptions{})

	calls := 0
	poll := func() (string, error) {
		calls++
		switch calls {
		case 1, 3:
			return "", errors.New("page detached")
		case 2:
			return "partial", nil
		default:
			return "partial done", nil
		}
	}

	text, state := w.Wait(poll, "")

	require.Equal(t, Completed, state)
	assert.Equal(t, "partial done", text)
}

func TestWatcherBusySuppressesStability(t *testing.T) {
	busy := true
	busyPolls := 0
	w, _ := newTestWatcher(t, WatcherOptions{
		StableChecks: 2,
		Busy: func() bool {
			busyPolls++
			// Stays busy through several unchanged observations, then
			// releases.
			if busyPolls > 4 {
				busy = false
			}
			return busy
		},
	})

	text, state := w.Wait(scriptPoller("answer", "answer", "answer", "answer", "answer", "answer", "answer", "answer", "answer"), "")

	assert.Equal(t, Completed, state)
	assert.Equal(t, "answer", text)
	assert.Greater(t, busyPolls, 4, "completion must wait for the busy signal to clear")
}

func TestWatcherBusyCountsAsStart(t *testing.T) {
	busyUntil := 0
	w, _ := newTestWatcher(t, WatcherOptions{
		StartTimeout: time.Second,
		Busy: func() bool {
			busyUntil++
			return busyUntil <= 3
		},
	})

	// No text before the start window would expire, but the busy signal
	// shows generation began; text then arrives and stabilizes.
	calls := 0
	poll := func() (string, error) {
		calls++
		if calls < 5 {
			return "", nil
		}
		return "late reply", nil
	}

	text, state := w.Wait(poll, "")

	assert.Equal(t, Completed, state)
	assert.Equal(t, "late reply", text)
}

func TestWatcherDefaults(t *testing.T) {
	opts := WatcherOptions{}
	opts.applyDefaults()

	assert.Equal(t, 500*time.Millisecond, opts.PollInterval)
	assert.Equal(t, time.Second, opts.StreamInterval)
	assert.Equal(t, 20*time.Second, opts.StartTimeout)
	assert.Equal(t, 2, opts.StableChecks)
	assert.Equal(t, 10*time.Second, opts.QuietPeriod)
	assert.Equal(t, 5*time.Minute, opts.MaxWait)
}

func TestWaitStateString(t *testing.T) {
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "timed_out", TimedOut.String())
}
