package auth

const (
	PermIncapacitiesRead    = "incapacities.read"
	PermIncapacitiesWrite   = "incapacities.write"
	PermIncapacitiesReview  = "incapacities.review"
	PermIncapacitiesPay     = "incapacities.pay"
	PermReconciliationsRead = "reconciliations.read"
	PermReconciliationsRun  = "reconciliations.run"
	PermReplacementsRead    = "replacements.read"
	PermReplacementsWrite   = "replacements.write"
	PermNotificationsRead   = "notifications.read"
	PermReportsRead         = "reports.read"
	PermUsersRead           = "users.read"
	PermUsersWrite          = "users.write"
	PermAuditRead           = "audit.read"
	PermSystemAdmin         = "admin.system"
)

var DefaultPermissions = []string{
	PermIncapacitiesRead,
	PermIncapacitiesWrite,
	PermIncapacitiesReview,
	PermIncapacitiesPay,
	PermReconciliationsRead,
	PermReconciliationsRun,
	PermReplacementsRead,
	PermReplacementsWrite,
	PermNotificationsRead,
	PermReportsRead,
	PermUsersRead,
	PermUsersWrite,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermIncapacitiesRead,
		PermIncapacitiesWrite,
		PermReplacementsRead,
		PermNotificationsRead,
	},
	RoleSupervisor: {
		PermIncapacitiesRead,
		PermIncapacitiesWrite,
		PermReplacementsRead,
		PermReplacementsWrite,
		PermNotificationsRead,
		PermReportsRead,
		PermUsersRead,
	},
	RoleHR: {
		PermIncapacitiesRead,
		PermIncapacitiesWrite,
		PermIncapacitiesReview,
		PermReconciliationsRead,
		PermReplacementsRead,
		PermReplacementsWrite,
		PermNotificationsRead,
		PermReportsRead,
		PermUsersRead,
		PermUsersWrite,
		PermAuditRead,
	},
	RoleFinance: {
		PermIncapacitiesRead,
		PermIncapacitiesPay,
		PermReconciliationsRead,
		PermReconciliationsRun,
		PermNotificationsRead,
		PermReportsRead,
		PermUsersRead,
	},
	RoleAdmin: {
		PermIncapacitiesRead,
		PermIncapacitiesWrite,
		PermIncapacitiesReview,
		PermIncapacitiesPay,
		PermReconciliationsRead,
		PermReconciliationsRun,
		PermReplacementsRead,
		PermReplacementsWrite,
		PermNotificationsRead,
		PermReportsRead,
		PermUsersRead,
		PermUsersWrite,
		PermAuditRead,
		PermSystemAdmin,
	},
}

// HasRolePermission consults the static matrix; the store-backed check in the
// middleware is authoritative at runtime, this one backs unit tests and seeds.
func HasRolePermission(role, permission string) bool {
	for _, candidate := range RolePermissions[role] {
		if candidate == permission {
			return true
		}
	}
	return false
}
