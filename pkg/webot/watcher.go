package webot

import (
	"strings"
	"time"

	"github.com/mashangworks/webot/pkg/logging"
)

// WaitState is the terminal state of one response-watch cycle.
type WaitState int

const (
	// Completed means the reply finished streaming and the returned text
	// is the full response.
	Completed WaitState = iota

	// TimedOut means a duration budget expired first. The returned text is
	// the best observation so far, possibly empty. This is a soft failure.
	TimedOut
)

func (s WaitState) String() string {
	if s == Completed {
		return "completed"
	}
	return "timed_out"
}

// ContentPoller returns the latest assistant message text currently
// rendered on the page. It is called repeatedly; errors are treated as an
// empty observation.
type ContentPoller func() (string, error)

// WatcherOptions tunes the completion-detection heuristics. Zero values
// take the listed defaults.
type WatcherOptions struct {
	// PollInterval between observations while waiting for the reply to
	// start. Default 500ms.
	PollInterval time.Duration

	// StreamInterval between observations once streaming began.
	// Default 1s.
	StreamInterval time.Duration

	// StartTimeout bounds the wait for the first new content. Default 20s.
	StartTimeout time.Duration

	// StableChecks is how many consecutive unchanged-length observations
	// declare completion. Default 2.
	StableChecks int

	// QuietPeriod declares completion when no growth happened for this
	// long after streaming began. Default 10s.
	QuietPeriod time.Duration

	// MaxWait bounds the whole cycle. Default 5m.
	MaxWait time.Duration

	// ClosingPhrases are site-specific trailing markers (disclaimers,
	// footers) that signal the reply is done. Optional: an empty list
	// disables the check and leaves pure stability/timeout detection.
	ClosingPhrases []string

	// Busy, when set, reports whether the page shows an explicit
	// still-generating signal such as a stop button. While it returns
	// true no stability check can complete the cycle, and its first
	// true observation counts as the start of the reply.
	Busy func() bool
}

func (o *WatcherOptions) applyDefaults() {
	if o.PollInterval == 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.StreamInterval == 0 {
		o.StreamInterval = time.Second
	}
	if o.StartTimeout == 0 {
		o.StartTimeout = 20 * time.Second
	}
	if o.StableChecks == 0 {
		o.StableChecks = 2
	}
	if o.QuietPeriod == 0 {
		o.QuietPeriod = 10 * time.Second
	}
	if o.MaxWait == 0 {
		o.MaxWait = 5 * time.Minute
	}
}

// closingPhraseWindow is how far back from the end of the text closing
// phrases are searched for.
const closingPhraseWindow = 300

// Watcher decides when a streamed reply has finished rendering. The target
// pages expose no structured end-of-generation signal, so completion is
// inferred from the text itself: either a known closing phrase appears at
// the tail, or the text stops growing for long enough. A brief mid-stream
// pause therefore never completes a cycle early, while a stuck generation
// still returns its partial text instead of hanging.
type Watcher struct {
	opts  WatcherOptions
	log   *logging.Logger
	sleep func(time.Duration)
	now   func() time.Time
}

// NewWatcher creates a watcher with the given options.
func NewWatcher(opts WatcherOptions, log *logging.Logger) *Watcher {
	opts.applyDefaults()
	if log == nil {
		log = logging.Discard("watcher")
	}
	return &Watcher{
		opts:  opts,
		log:   log,
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// Wait polls until a reply that differs from lastResponse finishes
// streaming, or the budgets expire. It returns the final text and the
// terminal state. Callers own lastResponse and must overwrite it with the
// returned text when it is non-empty.
func (w *Watcher) Wait(poll ContentPoller, lastResponse string) (string, WaitState) {
	observe := func() string {
		text, err := poll()
		if err != nil {
			w.log.Debugf("content poll failed: %v", err)
			return ""
		}
		text = strings.TrimSpace(text)
		// Text identical to the previous cycle's reply is old content,
		// never a new observation.
		if text == lastResponse {
			return ""
		}
		return text
	}

	// Phase 1: wait for the reply to start.
	var (
		lastText   string
		lastLen    int
		stable     int
		started    bool
		lastChange time.Time
	)

	startDeadline := w.now().Add(w.opts.StartTimeout)
	for w.now().Before(startDeadline) {
		if text := observe(); text != "" {
			w.log.Debugf("reply started: %.80s", text)
			lastText = text
			lastLen = len(text)
			lastChange = w.now()
			started = true
			break
		}
		if w.busy() {
			w.log.Debugf("page reports generation in progress")
			lastChange = w.now()
			started = true
			break
		}
		w.sleep(w.opts.PollInterval)
	}

	if !started {
		// One direct check catches a short reply that raced the polls.
		if text := observe(); text != "" {
			w.log.Debugf("found completed short reply after start timeout")
			return text, Completed
		}
		w.log.Warnf("no reply started within %v", w.opts.StartTimeout)
		return "", TimedOut
	}

	// Phase 2: track growth until the text stabilizes.
	deadline := w.now().Add(w.opts.MaxWait)
	for w.now().Before(deadline) {
		text := observe()
		if text == "" {
			// Momentary blank read mid-stream; keep polling.
			w.sleep(w.opts.PollInterval)
			continue
		}

		switch length := len(text); {
		case length > lastLen:
			lastText = text
			lastLen = length
			lastChange = w.now()
			stable = 0

		case length == lastLen:
			if w.busy() {
				// An explicit busy signal overrides text stability.
				stable = 0
				lastChange = w.now()
				w.sleep(w.opts.StreamInterval)
				continue
			}
			stable++

			if w.hasClosingPhrase(text) {
				w.log.Debugf("closing phrase detected, reply complete")
				return text, Completed
			}
			if stable >= w.opts.StableChecks {
				w.log.Debugf("stable for %d checks, reply complete", stable)
				return text, Completed
			}
			if quiet := w.now().Sub(lastChange); quiet > w.opts.QuietPeriod {
				w.log.Debugf("quiet for %v, reply complete", quiet)
				return text, Completed
			}

		default:
			// Shrinkage: a render glitch or content replacement, not a
			// completion signal. Re-anchor and keep watching.
			w.log.Debugf("reply length dropped %d -> %d, resetting", lastLen, length)
			lastLen = length
			lastChange = w.now()
			stable = 0
		}

		w.sleep(w.opts.StreamInterval)
	}

	w.log.Warnf("reply did not stabilize within %v", w.opts.MaxWait)
	if lastText != "" {
		return lastText, TimedOut
	}
	if text := observe(); text != "" {
		return text, TimedOut
	}
	return "", TimedOut
}

func (w *Watcher) busy() bool {
	return w.opts.Busy != nil && w.opts.Busy()
}

// hasClosingPhrase reports whether a known closing marker appears in the
// trailing window of the text.
func (w *Watcher) hasClosingPhrase(text string) bool {
	if len(w.opts.ClosingPhrases) == 0 || text == "" {
		return false
	}

	tail := text
	if runes := []rune(text); len(runes) > closingPhraseWindow {
		tail = string(runes[len(runes)-closingPhraseWindow:])
	}

	for _, phrase := range w.opts.ClosingPhrases {
		if phrase != "" && strings.Contains(tail, phrase) {
			return true
		}
	}
	return false
}
