package ticket

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/clock"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/portal"
	"github.com/laimu/erptracker/internal/repository/memory"
	"github.com/laimu/erptracker/internal/tenant"
	"go.uber.org/zap"
)

var errStore = errors.New("connection reset")

func strPtr(s string) *string { return &s }

func validTicket() NewTicket {
	return NewTicket{
		Title:       "Error de login",
		Description: "Users cannot sign in after the upgrade",
		ModuleID:    "m1",
		Priority:    models.PriorityHigh,
	}
}

type boardFixture struct {
	store *memory.Store
	clock *clock.FakeClock
	board *Board
	scope tenant.Scope
}

func newBoardFixture(t *testing.T) *boardFixture {
	t.Helper()
	store := memory.New()
	clk := clock.Fake(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	scope := tenant.NewScope(models.Profile{ID: "u1", Role: models.RoleOrgAdmin, OrganizationID: strPtr("acme")})
	board := NewBoard(ScopedRemote{Repo: memory.Tickets{Store: store}, Scope: scope}, BoardConfig{
		Actor:          "Ana Admin",
		OrganizationID: strPtr("acme"),
		Clock:          clk,
		ModuleName:     func(id string) string { return map[string]string{"m1": "Finanzas"}[id] },
	})
	return &boardFixture{store: store, clock: clk, board: board, scope: scope}
}

func TestValidateNewOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*NewTicket)
		wantField string
	}{
		{"empty title wins over everything", func(n *NewTicket) { n.Title = ""; n.ModuleID = ""; n.Description = "" }, "title"},
		{"whitespace title", func(n *NewTicket) { n.Title = "   " }, "title"},
		{"short title", func(n *NewTicket) { n.Title = "abcd" }, "title"},
		{"short title before missing module", func(n *NewTicket) { n.Title = "abcd"; n.ModuleID = "" }, "title"},
		{"missing module", func(n *NewTicket) { n.ModuleID = "" }, "module_id"},
		{"missing module before description", func(n *NewTicket) { n.ModuleID = ""; n.Description = "" }, "module_id"},
		{"missing description", func(n *NewTicket) { n.Description = " " }, "description"},
		{"empty title before unknown priority", func(n *NewTicket) { n.Title = ""; n.Priority = "URGENT" }, "title"},
		{"missing description before unknown priority", func(n *NewTicket) { n.Description = ""; n.Priority = "URGENT" }, "description"},
		{"unknown priority", func(n *NewTicket) { n.Priority = "URGENT" }, "priority"},
		{"legacy priority", func(n *NewTicket) { n.Priority = "Alta" }, ""},
		{"valid", func(n *NewTicket) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validTicket()
			tt.mutate(&n)
			err := ValidateNew(n)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.IsValidation(err) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if got := apperr.FieldOf(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestValidateCommentBoundary(t *testing.T) {
	if err := ValidateComment(strings.Repeat("a", 500)); err != nil {
		t.Errorf("500 characters should pass: %v", err)
	}
	if err := ValidateComment(strings.Repeat("a", 501)); !apperr.IsValidation(err) {
		t.Errorf("501 characters should fail, got %v", err)
	}
	// Characters, not bytes.
	if err := ValidateComment(strings.Repeat("é", 500)); err != nil {
		t.Errorf("500 multibyte characters should pass: %v", err)
	}
	if err := ValidateComment("  "); !apperr.IsValidation(err) {
		t.Errorf("blank comment should fail, got %v", err)
	}
}

func TestFilterComposition(t *testing.T) {
	tickets := []models.Ticket{
		{ID: "T-1", Title: "Error de login", ModuleID: "m1", ModuleName: "Seguridad"},
		{ID: "T-2", Title: "Reporte falla", ModuleID: "m2", ModuleName: "Finanzas"},
	}

	got := Filter(tickets, "login", "")
	if len(got) != 1 || got[0].ID != "T-1" {
		t.Errorf("search login = %v", ids(got))
	}
	if got := Filter(tickets, "login", "m2"); len(got) != 0 {
		t.Errorf("login AND m2 should be empty, got %v", ids(got))
	}
	if got := Filter(tickets, "t-2", ""); len(got) != 1 || got[0].ID != "T-2" {
		t.Errorf("id search is case-insensitive, got %v", ids(got))
	}
	if got := Filter(tickets, "FINANZAS", ""); len(got) != 1 || got[0].ID != "T-2" {
		t.Errorf("module name search, got %v", ids(got))
	}
	if got := Filter(tickets, "", ""); len(got) != 2 {
		t.Errorf("no filter should keep all, got %v", ids(got))
	}
}

func ids(tickets []models.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}

func TestBoardCreate(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()

	first, err := f.board.Create(ctx, validTicket())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Status != models.TicketOpen || len(first.Updates) != 0 {
		t.Errorf("new ticket = %+v, want OPEN with empty log", first)
	}
	if first.Requester != "Ana Admin" || first.ModuleName != "Finanzas" {
		t.Errorf("requester/module = %q/%q", first.Requester, first.ModuleName)
	}
	if !first.CreatedAt.Equal(f.clock.Now()) || !first.UpdatedAt.Equal(first.CreatedAt) {
		t.Errorf("timestamps = %v/%v", first.CreatedAt, first.UpdatedAt)
	}

	n := validTicket()
	n.ModuleID = "unknown"
	second, err := f.board.Create(ctx, n)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.ModuleName != "General" {
		t.Errorf("unknown module name = %q, want General", second.ModuleName)
	}

	got := f.board.Tickets()
	if len(got) != 2 || got[0].ID != second.ID {
		t.Errorf("newest ticket should be first, got %v", ids(got))
	}
	if fb, ok := f.board.Feedback(); !ok || fb.Kind != portal.FeedbackSuccess {
		t.Errorf("feedback = %+v, %v", fb, ok)
	}
}

func TestBoardCreateValidationMakesNoWrite(t *testing.T) {
	f := newBoardFixture(t)
	// Any write would fail loudly.
	f.store.FailOn("tickets.insert", errStore)

	n := validTicket()
	n.Title = "abcd"
	_, err := f.board.Create(context.Background(), n)
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	if len(f.board.Tickets()) != 0 {
		t.Error("validation failure changed local state")
	}
}

func TestBoardCreateRemoteFailureLeavesNoGhost(t *testing.T) {
	f := newBoardFixture(t)
	f.store.FailOn("tickets.insert", errStore)

	_, err := f.board.Create(context.Background(), validTicket())
	if !apperr.IsRemoteWrite(err) {
		t.Fatalf("err = %v, want remote write", err)
	}
	if len(f.board.Tickets()) != 0 {
		t.Error("failed write left a ticket behind")
	}
	fb, ok := f.board.Feedback()
	if !ok || fb.Kind != portal.FeedbackError {
		t.Fatalf("feedback = %+v, %v", fb, ok)
	}

	// Errors persist.
	f.clock.Advance(time.Minute)
	if _, ok := f.board.Feedback(); !ok {
		t.Error("error feedback should persist")
	}
}

func TestBoardStatusChangeIsAtomic(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	created, _ := f.board.Create(ctx, validTicket())

	f.clock.Advance(time.Hour)
	updated, err := f.board.ChangeStatus(ctx, created.ID, models.TicketResolved)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.Status != models.TicketResolved {
		t.Errorf("status = %s", updated.Status)
	}
	last := updated.Updates[len(updated.Updates)-1]
	if last.Type != models.UpdateStatusChange {
		t.Errorf("last entry type = %s", last.Type)
	}
	if last.Message != "status changed from OPEN to RESOLVED" || last.Author != "Ana Admin" {
		t.Errorf("entry = %+v", last)
	}
	if !updated.UpdatedAt.Equal(f.clock.Now()) {
		t.Errorf("updated_at = %v, want %v", updated.UpdatedAt, f.clock.Now())
	}

	// The store agrees.
	stored, _ := memory.Tickets{Store: f.store}.GetByID(ctx, f.scope, created.ID)
	if stored.Status != models.TicketResolved || len(stored.Updates) != 1 {
		t.Errorf("stored = %s with %d updates", stored.Status, len(stored.Updates))
	}

	// A failed change leaves both fields as they were.
	f.store.FailOn("tickets.update_status", errStore)
	if _, err := f.board.ChangeStatus(ctx, created.ID, models.TicketClosed); err == nil {
		t.Fatal("expected failure")
	}
	local := f.board.Tickets()[0]
	if local.Status != models.TicketResolved || len(local.Updates) != 1 {
		t.Errorf("after failure: %s with %d updates", local.Status, len(local.Updates))
	}
}

func TestBoardStatusAnyToAny(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	created, _ := f.board.Create(ctx, validTicket())

	for _, s := range []models.TicketStatus{models.TicketClosed, models.TicketOpen, models.TicketOpen, models.TicketInProgress} {
		if _, err := f.board.ChangeStatus(ctx, created.ID, s); err != nil {
			t.Fatalf("ChangeStatus(%s): %v", s, err)
		}
	}
	if _, err := f.board.ChangeStatus(ctx, created.ID, "ARCHIVED"); !apperr.IsValidation(err) {
		t.Errorf("unknown status should be rejected, got %v", err)
	}
}

func TestBoardLogIsAppendOnly(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	created, _ := f.board.Create(ctx, validTicket())

	var snapshots [][]models.TicketUpdate
	steps := []func() (*models.Ticket, error){
		func() (*models.Ticket, error) { return f.board.AddComment(ctx, created.ID, "looking into it") },
		func() (*models.Ticket, error) { return f.board.ChangeStatus(ctx, created.ID, models.TicketInProgress) },
		func() (*models.Ticket, error) { return f.board.AddComment(ctx, created.ID, "fixed in build 42") },
		func() (*models.Ticket, error) { return f.board.ChangeStatus(ctx, created.ID, models.TicketResolved) },
	}
	for i, step := range steps {
		f.clock.Advance(time.Minute)
		got, err := step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		snapshots = append(snapshots, got.Updates)
	}

	final := f.board.Tickets()[0].Updates
	if len(final) != len(steps) {
		t.Fatalf("log has %d entries, want %d", len(final), len(steps))
	}
	wantTypes := []models.UpdateType{models.UpdateComment, models.UpdateStatusChange, models.UpdateComment, models.UpdateStatusChange}
	for i, u := range final {
		if u.Type != wantTypes[i] {
			t.Errorf("entry %d type = %s, want %s", i, u.Type, wantTypes[i])
		}
	}
	// Earlier snapshots are prefixes of the final log and were never changed.
	for i, snap := range snapshots {
		if len(snap) != i+1 {
			t.Fatalf("snapshot %d has %d entries", i, len(snap))
		}
		for j := range snap {
			if snap[j] != final[j] {
				t.Errorf("entry %d changed after snapshot %d", j, i)
			}
		}
	}
}

func TestBoardCommentTooLongMakesNoWrite(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	created, _ := f.board.Create(ctx, validTicket())

	if _, err := f.board.AddComment(ctx, created.ID, strings.Repeat("x", 501)); !apperr.IsValidation(err) {
		t.Fatalf("err = %v", err)
	}
	stored, _ := memory.Tickets{Store: f.store}.GetByID(ctx, f.scope, created.ID)
	if len(stored.Updates) != 0 {
		t.Error("rejected comment reached the store")
	}
	if _, err := f.board.AddComment(ctx, created.ID, strings.Repeat("x", 500)); err != nil {
		t.Errorf("500 characters: %v", err)
	}
}

func TestBoardDeleteGate(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	a, _ := f.board.Create(ctx, validTicket())
	b, _ := f.board.Create(ctx, validTicket())

	f.board.SelectForDelete(a.ID)
	if len(f.board.Tickets()) != 2 {
		t.Fatal("selecting removed a ticket")
	}
	f.board.CancelDelete()
	if len(f.board.Tickets()) != 2 || f.board.PendingDelete() != "" {
		t.Fatal("cancel changed state")
	}
	if err := f.board.ConfirmDelete(ctx); !errors.Is(err, portal.ErrNothingSelected) {
		t.Fatalf("confirm after cancel = %v", err)
	}

	f.board.Toggle(b.ID)
	f.board.SelectForDelete(b.ID)
	if err := f.board.ConfirmDelete(ctx); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	got := f.board.Tickets()
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("remaining = %v", ids(got))
	}
	if f.board.Expanded() != "" {
		t.Error("deleted ticket is still expanded")
	}
}

func TestBoardDeleteFailureKeepsTicket(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	a, _ := f.board.Create(ctx, validTicket())

	f.store.FailOn("tickets.delete", errStore)
	f.board.SelectForDelete(a.ID)
	if err := f.board.ConfirmDelete(ctx); !apperr.IsRemoteWrite(err) {
		t.Fatalf("err = %v", err)
	}
	if len(f.board.Tickets()) != 1 {
		t.Error("failed delete removed the ticket locally")
	}
	if f.board.PendingDelete() != a.ID {
		t.Error("selection should survive a failed delete")
	}
}

func TestBoardToggle(t *testing.T) {
	f := newBoardFixture(t)
	f.board.Toggle("a")
	f.board.Toggle("b")
	if f.board.Expanded() != "b" {
		t.Errorf("expanded = %q", f.board.Expanded())
	}
	f.board.Toggle("b")
	if f.board.Expanded() != "" {
		t.Errorf("expanded = %q after collapse", f.board.Expanded())
	}
}

func TestBoardSuccessFeedbackClears(t *testing.T) {
	f := newBoardFixture(t)
	if _, err := f.board.Create(context.Background(), validTicket()); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(4 * time.Second)
	if _, ok := f.board.Feedback(); !ok {
		t.Fatal("feedback cleared too early")
	}
	f.clock.Advance(time.Second)
	if fb, ok := f.board.Feedback(); ok {
		t.Errorf("feedback should clear after 5s, got %+v", fb)
	}
}

// blockingRemote holds Insert until released.
type blockingRemote struct {
	Remote
	entered chan struct{}
	release chan struct{}
}

func (r blockingRemote) Insert(ctx context.Context, t models.Ticket) error {
	close(r.entered)
	<-r.release
	return r.Remote.Insert(ctx, t)
}

func TestBoardRejectsConcurrentMutation(t *testing.T) {
	store := memory.New()
	scope := tenant.NewScope(models.Profile{ID: "u1", Role: models.RoleOrgAdmin, OrganizationID: strPtr("acme")})
	remote := blockingRemote{
		Remote:  ScopedRemote{Repo: memory.Tickets{Store: store}, Scope: scope},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	board := NewBoard(remote, BoardConfig{Actor: "Ana", OrganizationID: strPtr("acme"), Clock: clock.Fake(time.Now())})

	done := make(chan error, 1)
	go func() {
		_, err := board.Create(context.Background(), validTicket())
		done <- err
	}()

	<-remote.entered
	if _, err := board.Create(context.Background(), validTicket()); !errors.Is(err, portal.ErrBusy) {
		t.Errorf("second create = %v, want ErrBusy", err)
	}
	close(remote.release)
	if err := <-done; err != nil {
		t.Fatalf("first create: %v", err)
	}
	if len(board.Tickets()) != 1 {
		t.Errorf("tickets = %d, want 1", len(board.Tickets()))
	}
}

func newService(t *testing.T) (*Service, *memory.Store, *clock.FakeClock) {
	t.Helper()
	store := memory.New()
	clk := clock.Fake(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return NewService(memory.Tickets{Store: store}, memory.Modules{Store: store}, clk, zap.NewNop()), store, clk
}

func TestServiceLifecycle(t *testing.T) {
	svc, store, clk := newService(t)
	ctx := context.Background()
	scope := tenant.NewScope(models.Profile{ID: "u1", Role: models.RoleOrgAdmin, OrganizationID: strPtr("acme")})

	if err := (memory.Modules{Store: store}).Save(ctx, scope, models.Module{ID: "m1", Name: "Finanzas"}); err != nil {
		t.Fatal(err)
	}

	created, err := svc.Create(ctx, scope, "Ana", validTicket())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ModuleName != "Finanzas" || *created.OrganizationID != "acme" {
		t.Errorf("created = %+v", created)
	}

	clk.Advance(time.Minute)
	updated, err := svc.ChangeStatus(ctx, scope, "Ana", created.ID, "in progress")
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.Status != models.TicketInProgress {
		t.Errorf("status = %s, want canonical IN_PROGRESS", updated.Status)
	}

	if _, err := svc.AddComment(ctx, scope, "Ana", created.ID, "on it"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	got, err := svc.Get(ctx, scope, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Updates) != 2 || got.Updates[0].Type != models.UpdateStatusChange || got.Updates[1].Type != models.UpdateComment {
		t.Errorf("updates = %+v", got.Updates)
	}

	other := tenant.NewScope(models.Profile{ID: "u2", Role: models.RoleOrgAdmin, OrganizationID: strPtr("globex")})
	if _, err := svc.Get(ctx, other, created.ID); !apperr.IsNotFound(err) {
		t.Errorf("other tenant Get = %v, want not found", err)
	}
	if err := svc.Delete(ctx, other, created.ID); !apperr.IsNotFound(err) {
		t.Errorf("other tenant Delete = %v, want not found", err)
	}

	if err := svc.Delete(ctx, scope, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := svc.List(ctx, scope); len(list) != 0 {
		t.Errorf("list after delete = %d", len(list))
	}
}

func TestServiceCreateNeedsOrganization(t *testing.T) {
	svc, _, _ := newService(t)
	super := tenant.NewScope(models.Profile{ID: "root", Role: models.RoleSuperAdmin})
	if _, err := svc.Create(context.Background(), super, "Root", validTicket()); !apperr.IsForbidden(err) {
		t.Errorf("unscoped create = %v, want forbidden", err)
	}
}

func TestServiceReadFailure(t *testing.T) {
	svc, store, _ := newService(t)
	scope := tenant.NewScope(models.Profile{ID: "u1", Role: models.RoleClientUser, OrganizationID: strPtr("acme")})

	store.FailOn("tickets.list", errStore)
	if _, err := svc.List(context.Background(), scope); !apperr.IsRemoteRead(err) {
		t.Errorf("err = %v, want remote read", err)
	}

	store.FailOn("tickets.list", errors.New("JWT expired"))
	if _, err := svc.List(context.Background(), scope); !apperr.IsAuthExpired(err) {
		t.Errorf("err = %v, want auth expired", err)
	}
}
