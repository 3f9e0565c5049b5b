package portal

import (
	"sync"
	"time"

	"github.com/laimu/erptracker/internal/clock"
)

// DefaultFeedbackTTL is how long a success message stays up.
const DefaultFeedbackTTL = 5 * time.Second

type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
)

// Feedback is the message shown after a mutating action.
type Feedback struct {
	Kind    FeedbackKind `json:"kind"`
	Message string       `json:"message"`
	At      time.Time    `json:"at"`
}

// FeedbackState keeps the latest Feedback. Success clears itself after the
// TTL; an error stays until dismissed or replaced by the next action.
type FeedbackState struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	current *Feedback
	timer   clock.Timer
	// gen identifies the current message so a stale timer cannot clear a
	// newer one.
	gen uint64
}

func NewFeedbackState(clk clock.Clock, ttl time.Duration) *FeedbackState {
	if ttl <= 0 {
		ttl = DefaultFeedbackTTL
	}
	return &FeedbackState{clock: clk, ttl: ttl}
}

func (f *FeedbackState) Succeed(message string) {
	f.set(FeedbackSuccess, message)
}

func (f *FeedbackState) Fail(err error) {
	f.set(FeedbackError, err.Error())
}

// Current returns the message on display, if any.
func (f *FeedbackState) Current() (Feedback, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return Feedback{}, false
	}
	return *f.current, true
}

func (f *FeedbackState) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimer()
	f.gen++
	f.current = nil
}

func (f *FeedbackState) set(kind FeedbackKind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopTimer()
	f.gen++
	f.current = &Feedback{Kind: kind, Message: message, At: f.clock.Now()}
	if kind != FeedbackSuccess {
		return
	}

	gen := f.gen
	f.timer = f.clock.AfterFunc(f.ttl, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen == gen {
			f.current = nil
			f.timer = nil
		}
	})
}

func (f *FeedbackState) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
