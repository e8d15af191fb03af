package booking

// Status is the reservation lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// BlockingStatuses are the states that occupy the resource for conflict
// purposes. Cancelled and rejected reservations never conflict.
func BlockingStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed}
}

func (s Status) Blocks() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Role is the owner's role as asserted by the upstream gateway. Privileged
// roles weigh into conflict auto-resolution scoring.
type Role string

const (
	RoleStudent    Role = "student"
	RoleResearcher Role = "researcher"
	RoleLecturer   Role = "lecturer"
	RoleLabManager Role = "lab_manager"
	RoleSysadmin   Role = "sysadmin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleResearcher, RoleLecturer, RoleLabManager, RoleSysadmin:
		return true
	}
	return false
}

func (r Role) Privileged() bool {
	switch r {
	case RoleLecturer, RoleLabManager, RoleSysadmin:
		return true
	}
	return false
}
