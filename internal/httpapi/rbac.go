package httpapi

import "strings"

// Role identifies an HTTP caller's authorization class.
type Role string

// Roles recognized by the HTTP adapter. Admin is a wildcard.
const (
	RoleOperator   Role = "operator"
	RoleReviewer   Role = "reviewer"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// roleActions maps each role to the set of actions it may invoke.
// Supervisor and reviewer are strict supersets of nothing: operator's
// day-to-day mutations (claim/done/note/fail) are deliberately excluded
// from supervisor so that claiming work and overriding it require
// distinct credentials.
var roleActions = map[Role]map[string]bool{
	RoleOperator: {
		"claim": true, "done": true, "note": true, "fail": true,
	},
	RoleReviewer: {
		"status": true, "ready": true, "briefing": true, "context": true, "integrity": true,
	},
	RoleSupervisor: {
		"reset": true, "handover": true, "resume": true, "closeout-l2": true,
		"status": true, "ready": true, "briefing": true, "context": true, "integrity": true,
	},
}

// roleAllows reports whether role may invoke action. Admin is a
// wildcard; an unrecognized role is denied everything.
func roleAllows(role Role, action string) bool {
	if role == RoleAdmin {
		return true
	}
	actions, ok := roleActions[role]
	if !ok {
		return false
	}
	return actions[action]
}

// normalizeRole lowercases and defaults an empty role to operator,
// matching the reference RBAC table's default caller identity.
func normalizeRole(raw string) Role {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return RoleOperator
	}
	return Role(trimmed)
}
