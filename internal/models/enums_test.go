package models

import "testing"

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		in   string
		want TicketStatus
		ok   bool
	}{
		{"OPEN", TicketOpen, true},
		{"in progress", TicketInProgress, true},
		{"Resolved", TicketResolved, true},
		{"Abierto", TicketOpen, true},
		{"En Revisión", TicketInProgress, true},
		{"Cerrado", TicketClosed, true},
		{"", TicketOpen, false},
		{"reopened", TicketOpen, false},
	}
	for _, tt := range tests {
		got, ok := ParseTicketStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseTicketStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseTicketPriorityLegacy(t *testing.T) {
	tests := map[string]TicketPriority{
		"Baja":    PriorityLow,
		"Media":   PriorityMedium,
		"Alta":    PriorityHigh,
		"Crítica": PriorityCritical,
		"HIGH":    PriorityHigh,
		"urgent":  PriorityLow,
	}
	for in, want := range tests {
		if got, _ := ParseTicketPriority(in); got != want {
			t.Errorf("ParseTicketPriority(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoleIsAdmin(t *testing.T) {
	if RoleClientUser.IsAdmin() {
		t.Error("CLIENT_USER must not be admin")
	}
	if !RoleOrgAdmin.IsAdmin() || !RoleSuperAdmin.IsAdmin() {
		t.Error("ORG_ADMIN and SUPER_ADMIN must be admin")
	}
	if Role("OWNER").IsAdmin() {
		t.Error("unknown role must not be admin")
	}
}

func TestActionStatusToggled(t *testing.T) {
	if ActionPending.Toggled() != ActionCompleted {
		t.Error("PENDING should toggle to COMPLETED")
	}
	if ActionCompleted.Toggled() != ActionPending {
		t.Error("COMPLETED should toggle to PENDING")
	}
}

func TestParseDepartment(t *testing.T) {
	tests := []struct {
		in   string
		want Department
		ok   bool
	}{
		{"FINANCE", DeptFinance, true},
		{"human resources", DeptHR, true},
		{"Recursos Humanos", DeptHR, true},
		{"Dirección General", DeptGeneral, true},
		{"Planeación Estratégica", DeptStrategy, true},
		{"Almacén", DeptWarehouse, true},
		{"", DeptGeneral, false},
		{"Marketing", DeptGeneral, false},
	}
	for _, tt := range tests {
		got, ok := ParseDepartment(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDepartment(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseDirectoryRole(t *testing.T) {
	if got, ok := ParseDirectoryRole("admin"); got != DirectoryAdmin || !ok {
		t.Errorf("ParseDirectoryRole(admin) = %q, %v", got, ok)
	}
	if got, ok := ParseDirectoryRole("owner"); got != DirectoryMember || ok {
		t.Errorf("unknown role should fall back to USER, got %q, %v", got, ok)
	}
}
