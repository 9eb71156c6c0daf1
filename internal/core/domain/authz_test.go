package domain

import "testing"

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		ownerID string
		actorID string
		want    bool
	}{
		{"admin any record", RoleAdmin, "user-1", "user-2", true},
		{"admin own record", RoleAdmin, "user-2", "user-2", true},
		{"researcher own record", RoleResearcher, "user-1", "user-1", true},
		{"researcher foreign record", RoleResearcher, "user-1", "user-2", false},
		{"coordinator own record", RoleCoordinator, "user-3", "user-3", true},
		{"coordinator foreign record", RoleCoordinator, "user-3", "user-4", false},
		{"unknown role denied", Role("superuser"), "user-1", "user-1", false},
		{"empty owner denied for non-admin", RoleResearcher, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.role, tt.ownerID, tt.actorID); got != tt.want {
				t.Errorf("CanAccess(%q, %q, %q) = %v, want %v", tt.role, tt.ownerID, tt.actorID, got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "researcher", "coordinator"} {
		if _, ok := ParseRole(valid); !ok {
			t.Errorf("ParseRole(%q) should succeed", valid)
		}
	}
	for _, invalid := range []string{"", "Admin", "root", "client"} {
		if _, ok := ParseRole(invalid); ok {
			t.Errorf("ParseRole(%q) should fail", invalid)
		}
	}
}

func TestTrialEnums(t *testing.T) {
	if !PhaseIII.Valid() {
		t.Error("Phase III must be valid")
	}
	if TrialPhase("Phase V").Valid() {
		t.Error("Phase V must not be valid")
	}
	if !StatusRecruiting.Valid() {
		t.Error("Recruiting must be valid")
	}
	if TrialStatus("Paused").Valid() {
		t.Error("Paused must not be valid")
	}
}
