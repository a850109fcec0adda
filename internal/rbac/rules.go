package rbac

const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

const (
	PermQuizCreate    = "quiz:create"
	PermQuizView      = "quiz:view"
	PermQuizUpdateOwn = "quiz:update_own"
	PermQuizExport    = "quiz:export"
	PermResultsView   = "results:view"
	PermSessionTake   = "session:take"
	PermAttemptOwn    = "attempt:view-own"
	PermEventsView    = "events:view"
)

// RolePermissions is the default policy.
var RolePermissions = Policy{
	RoleStudent: {
		PermQuizView,
		PermSessionTake,
		PermAttemptOwn,
	},
	RoleLecturer: {
		PermQuizCreate,
		PermQuizView,
		PermQuizUpdateOwn,
		PermQuizExport,
		PermResultsView,
		PermSessionTake,
		PermAttemptOwn,
	},
	RoleAdmin: {
		"*", // everything
	},
}

// ValidRole reports whether role is one the policy knows.
func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
