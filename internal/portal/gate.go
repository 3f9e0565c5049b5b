package portal

import (
	"errors"
	"sync"
)

// ErrBusy is returned when an action is started while another one on the
// same collection is still waiting for the store.
var ErrBusy = errors.New("another operation is in progress")

// ErrNothingSelected is returned by a delete confirmation with no pending
// selection.
var ErrNothingSelected = errors.New("nothing is selected for deletion")

// Gate admits one mutating operation at a time. A second caller is turned
// away instead of queued, the way a disabled submit button would.
type Gate struct {
	mu sync.Mutex
}

// Enter returns a release func, or ErrBusy.
func (g *Gate) Enter() (func(), error) {
	if !g.mu.TryLock() {
		return nil, ErrBusy
	}
	return g.mu.Unlock, nil
}

// Confirmation is the pending-delete selection that has to precede an
// irreversible delete. Selecting again replaces the previous selection.
type Confirmation struct {
	mu      sync.Mutex
	pending string
}

func (c *Confirmation) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = id
}

// Pending returns the selected id, or "".
func (c *Confirmation) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Confirmation) Cancel() {
	c.Select("")
}

// Take returns the selected id and clears the selection.
func (c *Confirmation) Take() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.pending
	c.pending = ""
	return id
}
