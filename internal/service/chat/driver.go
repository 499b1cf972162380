package chat

import (
	"context"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/zhouzirui/bug-fixer/backend/internal/model/chat"
	"github.com/zhouzirui/bug-fixer/backend/internal/service/prompt"
)

const (
	// WelcomeMessage seeds every new session.
	WelcomeMessage = "Welcome! Paste any buggy code and I'll fix it."
	// ClearedMessage replaces the history on reset.
	ClearedMessage = "Chat cleared. Paste new code to analyze!"
)

// Outcomes reported to the Observer.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Completer sends one prompt to the hosted model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Observer receives the result of every completion call.
type Observer interface {
	ObserveCompletion(outcome string, elapsed time.Duration)
}

// Driver advances a Session through submit and reset. It holds no session
// state itself: every operation takes a Session and returns the next one.
type Driver struct {
	completer Completer
	observer  Observer
	now       func() time.Time
}

// DriverOption customises a Driver.
type DriverOption func(*Driver)

// WithObserver reports completion outcomes to o.
func WithObserver(o Observer) DriverOption {
	return func(d *Driver) { d.observer = o }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) { d.now = now }
}

// NewDriver returns a Driver calling completer once per submission.
func NewDriver(completer Completer, opts ...DriverOption) *Driver {
	d := &Driver{completer: completer, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewSession returns a fresh idle session holding the welcome turn.
func (d *Driver) NewSession(id string) chat.Session {
	return chat.Session{
		ID:        id,
		State:     chat.StateIdle,
		Turns:     []chat.Turn{chat.AssistantTurn(WelcomeMessage)},
		CreatedAt: d.now().UTC(),
	}
}

// Submit appends the user turn and the assistant's answer to text. Completion
// errors become an assistant turn; they are never returned. s is not modified.
func (d *Driver) Submit(ctx context.Context, s chat.Session, text string) chat.Session {
	next := s.Clone()
	next.Turns = append(next.Turns, chat.UserTurn(text))

	start := d.now()
	reply, err := d.completer.Complete(ctx, prompt.Build(text))
	elapsed := d.now().Sub(start)

	if err != nil {
		d.observe(OutcomeFailure, elapsed)
		log.Printf("[chat] completion failed session=%s: %v", s.ID, err)
		next.Turns = append(next.Turns, chat.AssistantTurn(FormatFailure(err)))
	} else {
		d.observe(OutcomeSuccess, elapsed)
		next.Turns = append(next.Turns, chat.AssistantTurn(reply+FormatElapsed(elapsed)))
	}

	next.State = chat.StateIdle
	return next
}

// Reset drops the history, keeping the session identity.
func (d *Driver) Reset(s chat.Session) chat.Session {
	return chat.Session{
		ID:        s.ID,
		State:     chat.StateIdle,
		Turns:     []chat.Turn{chat.AssistantTurn(ClearedMessage)},
		CreatedAt: s.CreatedAt,
	}
}

func (d *Driver) observe(outcome string, elapsed time.Duration) {
	if d.observer != nil {
		d.observer.ObserveCompletion(outcome, elapsed)
	}
}

// FormatElapsed renders the response-time suffix appended to replies.
// Seconds are rounded to two decimals; whole values keep one decimal (3.0).
func FormatElapsed(elapsed time.Duration) string {
	secs := math.Round(elapsed.Seconds()*100) / 100
	text := strconv.FormatFloat(secs, 'f', -1, 64)
	if secs == math.Trunc(secs) {
		text = strconv.FormatFloat(secs, 'f', 1, 64)
	}
	return "\n\n⏱️ **Response Time:** " + text + " sec"
}

// FormatFailure renders a completion error as assistant text.
func FormatFailure(err error) string {
	return "Error: " + err.Error()
}
