package authz

import "testing"

func TestAllow(t *testing.T) {
	tests := []struct {
		name    string
		caller  Caller
		ownerID string
		action  Action
		want    bool
	}{
		{"admin manages anything", Caller{"a1", RoleAdmin}, "t1", ActionManageOwned, true},
		{"admin passes admin-only", Caller{"a1", RoleAdmin}, "", ActionAdmin, true},
		{"owning teacher manages", Caller{"t1", RoleTeacher}, "t1", ActionManageOwned, true},
		{"other teacher denied", Caller{"t2", RoleTeacher}, "t1", ActionManageOwned, false},
		{"student denied manage", Caller{"s1", RoleStudent}, "t1", ActionManageOwned, false},
		{"student reads self", Caller{"s1", RoleStudent}, "s1", ActionSelf, true},
		{"student denied other self", Caller{"s1", RoleStudent}, "s2", ActionSelf, false},
		{"teacher denied admin-only", Caller{"t1", RoleTeacher}, "", ActionAdmin, false},
		{"empty caller id denied", Caller{"", RoleTeacher}, "", ActionManageOwned, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allow(tt.caller, tt.ownerID, tt.action); got != tt.want {
				t.Errorf("Allow(%+v, %q, %v) = %v, want %v", tt.caller, tt.ownerID, tt.action, got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleStudent, RoleTeacher, RoleAdmin} {
		if !r.Valid() {
			t.Errorf("Role(%q).Valid() = false, want true", r)
		}
	}
	if Role("superuser").Valid() {
		t.Error(`Role("superuser").Valid() = true, want false`)
	}
}
