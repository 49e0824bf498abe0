package workflow

import (
	"fmt"

	"github.com/uni-payroll/catams-api/internal/models"
)

// Decision is an authorization outcome with a human-readable deny reason.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Permissions encodes the role-relational authorization matrix. Inputs are
// the actor, their relationship to the target, and the verb; approval
// actions themselves are authorized by the state machine's role column.
type Permissions struct{}

// NewPermissions returns the authorization matrix.
func NewPermissions() *Permissions {
	return &Permissions{}
}

// CanCreate: lecturers for courses they own, admins anywhere, tutors never.
func (p *Permissions) CanCreate(role models.UserRole, ownsCourse bool) Decision {
	switch role {
	case models.RoleAdmin:
		return allow()
	case models.RoleLecturer:
		if ownsCourse {
			return allow()
		}
		return deny("lecturers may only create timesheets for their own courses")
	default:
		return deny("tutors may not create timesheets")
	}
}

// CanEdit: editable status, and admin | course lecturer | owning tutor
// while modification is requested.
func (p *Permissions) CanEdit(actor Actor, status models.TimesheetStatus) Decision {
	if !status.Editable() {
		return deny(fmt.Sprintf("timesheet in status %s is not editable", status))
	}
	switch {
	case actor.Role == models.RoleAdmin:
		return allow()
	case actor.Role == models.RoleLecturer && actor.IsCourseLecturer:
		return allow()
	case actor.Role == models.RoleTutor && actor.IsOwner && status == models.StatusModificationRequested:
		return allow()
	}
	return deny("no edit rights on this timesheet")
}

// CanDelete: DRAFT only, and admin | course lecturer.
func (p *Permissions) CanDelete(actor Actor, status models.TimesheetStatus) Decision {
	if status != models.StatusDraft {
		return deny("only draft timesheets may be deleted")
	}
	if actor.Role == models.RoleAdmin || (actor.Role == models.RoleLecturer && actor.IsCourseLecturer) {
		return allow()
	}
	return deny("no delete rights on this timesheet")
}

// CanView: tutors see their own, lecturers their courses', admins all.
func (p *Permissions) CanView(actor Actor) Decision {
	switch {
	case actor.Role == models.RoleAdmin:
		return allow()
	case actor.Role == models.RoleLecturer && actor.IsCourseLecturer:
		return allow()
	case actor.Role == models.RoleTutor && actor.IsOwner:
		return allow()
	}
	return deny("no view rights on this timesheet")
}

// CanFilterByCourse governs dashboard and list scoping: tutors never filter
// by course, lecturers only within courses they own, admins anywhere.
func (p *Permissions) CanFilterByCourse(role models.UserRole, ownsCourse bool) Decision {
	switch role {
	case models.RoleAdmin:
		return allow()
	case models.RoleLecturer:
		if ownsCourse {
			return allow()
		}
		return deny("lecturers may only filter within their own courses")
	default:
		return deny("tutors may not filter by course")
	}
}
