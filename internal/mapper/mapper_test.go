package mapper

import (
	"strings"
	"testing"
	"time"

	"github.com/laimu/erptracker/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestMapModuleEmptyRow(t *testing.T) {
	m := MapModule(ModuleRow{ID: "m1"})

	if m.Status != models.StatusPending {
		t.Errorf("Status = %q, want PENDING", m.Status)
	}
	if m.Icon != DefaultModuleIcon {
		t.Errorf("Icon = %q, want %q", m.Icon, DefaultModuleIcon)
	}
	if m.Progress != 0 {
		t.Errorf("Progress = %d, want 0", m.Progress)
	}
	if m.Features == nil {
		t.Error("Features must be an empty slice, not nil")
	}
	if m.OrganizationID != nil {
		t.Error("OrganizationID should be nil")
	}
}

func TestMapModuleCoercesFeatures(t *testing.T) {
	m := MapModule(ModuleRow{
		ID:       "m1",
		Name:     ptr("Ventas"),
		Status:   ptr("in progress"),
		Progress: ptr(int32(140)),
		Features: []FeatureRow{
			{Name: ptr("Cotizaciones"), Status: ptr("COMPLETED")},
			{Name: nil, Status: ptr("???")},
			{},
		},
	})

	if m.Status != models.StatusInProgress {
		t.Errorf("Status = %q", m.Status)
	}
	if m.Progress != 100 {
		t.Errorf("Progress = %d, want clamp to 100", m.Progress)
	}
	if len(m.Features) != 3 {
		t.Fatalf("len(Features) = %d", len(m.Features))
	}
	if m.Features[1].Status != models.StatusPending || m.Features[2].Status != models.StatusPending {
		t.Error("unknown feature statuses should fall back to PENDING")
	}
}

func TestMapTicketDefaults(t *testing.T) {
	tk := MapTicket(TicketRow{ID: "T-1", Priority: ptr("whatever"), Status: nil})

	if tk.Priority != models.PriorityLow {
		t.Errorf("Priority = %q, want LOW", tk.Priority)
	}
	if tk.Status != models.TicketOpen {
		t.Errorf("Status = %q, want OPEN", tk.Status)
	}
	if tk.ModuleName != DefaultModuleName {
		t.Errorf("ModuleName = %q, want %q", tk.ModuleName, DefaultModuleName)
	}
	if tk.Updates == nil {
		t.Error("Updates must not be nil")
	}
}

func TestMapTicketOrdersUpdates(t *testing.T) {
	t0 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	tk := MapTicket(TicketRow{
		ID:        "T-1",
		CreatedAt: ptr(t0),
		Updates: []TicketUpdateRow{
			{ID: ptr("u2"), Date: ptr(t0.Add(2 * time.Hour)), Type: ptr("STATUS_CHANGE")},
			{ID: ptr("u1"), Date: ptr(t0.Add(time.Hour)), Type: ptr("bogus")},
		},
	})

	if tk.Updates[0].ID != "u1" || tk.Updates[1].ID != "u2" {
		t.Fatalf("updates not in append order: %+v", tk.Updates)
	}
	if tk.Updates[0].Type != models.UpdateComment {
		t.Errorf("unknown update type should default to COMMENT, got %q", tk.Updates[0].Type)
	}
	if !tk.UpdatedAt.Equal(t0) {
		t.Errorf("UpdatedAt should default to CreatedAt, got %s", tk.UpdatedAt)
	}
}

func TestMapTicketSameInstantKeepsAppendOrder(t *testing.T) {
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	tk := MapTicket(TicketRow{
		ID: "T-1",
		Updates: []TicketUpdateRow{
			{ID: ptr("c-third"), Seq: ptr(int64(9)), Date: ptr(at)},
			{ID: ptr("a-first"), Seq: ptr(int64(7)), Date: ptr(at)},
			{ID: ptr("b-second"), Seq: ptr(int64(8)), Date: ptr(at)},
		},
	})

	var got []string
	for _, u := range tk.Updates {
		got = append(got, u.ID)
	}
	if strings.Join(got, ",") != "a-first,b-second,c-third" {
		t.Errorf("order = %v, want append order", got)
	}
}

func TestDecodeTicketUpdatesSeq(t *testing.T) {
	raw := `[{"id":"u1","seq":42,"author":"ana","date":"2026-02-01T10:00:00+00:00","message":"m","type":"COMMENT"}]`
	rows, err := DecodeTicketUpdates([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeTicketUpdates: %v", err)
	}
	if rows[0].Seq == nil || *rows[0].Seq != 42 {
		t.Errorf("seq not decoded: %v", rows[0].Seq)
	}
}

func TestMapTimelineEventNilChildren(t *testing.T) {
	ev := MapTimelineEvent(TimelineEventRow{ID: "e1"})
	if ev.Tasks == nil || ev.ModulesIncluded == nil {
		t.Fatal("child slices must be empty, not nil")
	}
	if ev.Status != models.StatusPending {
		t.Errorf("Status = %q", ev.Status)
	}
}

func TestMapSimpleEntities(t *testing.T) {
	a := MapActionItem(ActionItemRow{ID: "a1"})
	if a.Status != models.ActionPending || a.IsCritical {
		t.Errorf("action defaults wrong: %+v", a)
	}

	tut := MapTutorial(TutorialRow{ID: "t1", Type: ptr("podcast"), ThumbnailColor: ptr("")})
	if tut.Type != models.TutorialDoc {
		t.Errorf("Type = %q, want DOC", tut.Type)
	}
	if tut.ThumbnailColor != DefaultThumbnailColor {
		t.Errorf("ThumbnailColor = %q", tut.ThumbnailColor)
	}

	p := MapProfile(ProfileRow{ID: "p1", Role: ptr("ROOT"), OrganizationID: ptr("")})
	if p.Role != models.RoleClientUser {
		t.Errorf("Role = %q, want CLIENT_USER", p.Role)
	}
	if p.FullName != DefaultProfileName {
		t.Errorf("FullName = %q", p.FullName)
	}
	if p.OrganizationID != nil {
		t.Error("empty organization id should map to nil")
	}

	u := MapDirectoryUser(DirectoryUserRow{ID: "u1", Role: ptr("ADMIN"), Department: ptr("Almacén")})
	if u.Role != models.DirectoryAdmin || u.Department != models.DeptWarehouse {
		t.Errorf("directory user = %+v", u)
	}
	if u = MapDirectoryUser(DirectoryUserRow{ID: "u2"}); u.Role != models.DirectoryMember || u.Department != models.DeptGeneral {
		t.Errorf("directory user defaults wrong: %+v", u)
	}

	n := MapNotification(NotificationRow{ID: "n1", Type: ptr("PANIC")})
	if n.Type != models.NotificationInfo || n.IsRead {
		t.Errorf("notification defaults wrong: %+v", n)
	}

	o := MapOrganization(OrganizationRow{ID: "o1", Branding: []byte("{not json")})
	if o.ProjectStage != models.StagePreKickoff || o.HealthStatus != models.HealthOnTrack {
		t.Errorf("organization defaults wrong: %+v", o)
	}
	if o.Branding != (models.BrandingConfig{}) {
		t.Errorf("bad branding should map to zero config, got %+v", o.Branding)
	}

	d := MapCustomDevelopment(CustomDevelopmentRow{ID: "d1"})
	if d.Status != models.StatusPending {
		t.Errorf("custom development status = %q", d.Status)
	}
}

func TestDecodeChildren(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"absent", "", 0, false},
		{"null", "null", 0, false},
		{"empty array", "[]", 0, false},
		{"two rows", `[{"name":"A","status":"COMPLETED"},{"name":"B","status":null}]`, 2, false},
		{"malformed", `[{"name":`, 0, true},
		{"wrong shape", `{"name":"A"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := DecodeFeatures([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if rows == nil {
				t.Fatal("rows must never be nil")
			}
			if len(rows) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(rows), tt.wantLen)
			}
		})
	}
}

func TestDecodeTicketUpdatesTimestamps(t *testing.T) {
	raw := `[{"id":"u1","author":"ana","date":"2026-02-01T10:00:00.123456+00:00","message":"hola","type":"COMMENT"}]`
	rows, err := DecodeTicketUpdates([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeTicketUpdates: %v", err)
	}
	if rows[0].Date == nil || rows[0].Date.Year() != 2026 {
		t.Fatalf("date not parsed: %+v", rows[0].Date)
	}
}
