package auth

// Role names mirror the actors in the incapacity workflow: employees report
// their own leave, supervisors report for their team and run replacements,
// HR reviews and validates, finance pays and reconciles.
const (
	RoleEmployee   = "employee"
	RoleSupervisor = "supervisor"
	RoleHR         = "hr"
	RoleFinance    = "finance"
	RoleAdmin      = "admin"
)

var AllRoles = []string{
	RoleEmployee,
	RoleSupervisor,
	RoleHR,
	RoleFinance,
	RoleAdmin,
}
