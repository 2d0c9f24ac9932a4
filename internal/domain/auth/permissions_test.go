package auth

import "testing"

func TestRolePermissionsCoverKnownRoles(t *testing.T) {
	for _, role := range AllRoles {
		if len(RolePermissions[role]) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
	}
}

func TestReviewAndPayAreSeparated(t *testing.T) {
	if !HasRolePermission(RoleHR, PermIncapacitiesReview) {
		t.Fatal("hr must hold the review permission")
	}
	if HasRolePermission(RoleHR, PermIncapacitiesPay) {
		t.Fatal("hr must not hold the pay permission")
	}
	if !HasRolePermission(RoleFinance, PermIncapacitiesPay) {
		t.Fatal("finance must hold the pay permission")
	}
	if HasRolePermission(RoleFinance, PermIncapacitiesReview) {
		t.Fatal("finance must not hold the review permission")
	}
}

func TestEmployeeCannotManageUsers(t *testing.T) {
	if HasRolePermission(RoleEmployee, PermUsersWrite) {
		t.Fatal("employee must not manage users")
	}
	if HasRolePermission(RoleEmployee, PermReconciliationsRun) {
		t.Fatal("employee must not run reconciliations")
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := make(map[string]bool, len(DefaultPermissions))
	for _, p := range DefaultPermissions {
		if seen[p] {
			t.Fatalf("duplicate permission %s", p)
		}
		seen[p] = true
	}
}
