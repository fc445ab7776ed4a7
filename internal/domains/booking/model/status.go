package model

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions is the complete edge set of the lifecycle state machine. Any
// requested transition absent from it is rejected.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Terminal reports whether s admits no further transition.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := transitions[s]

	return ok
}

func (s Status) String() string {
	return string(s)
}

// ActorRole tags who performed a lifecycle operation. It is carried explicitly
// through every call rather than resolved from ambient request context.
type ActorRole string

const (
	RoleCustomer ActorRole = "CUSTOMER"
	RoleProvider ActorRole = "PROVIDER"
	RoleAdmin    ActorRole = "ADMIN"
	RoleSystem   ActorRole = "SYSTEM"
)

// Valid reports whether r is a known actor role.
func (r ActorRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdmin, RoleSystem:
		return true
	}

	return false
}

// Action names one accepted mutating operation, recorded verbatim in the
// audit trail.
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionConfirm  Action = "CONFIRM"
	ActionStart    Action = "START"
	ActionComplete Action = "COMPLETE"
	ActionCancel   Action = "CANCEL"
)
