package domain

// RequestStatus enumerates lifecycle states for requests.
type RequestStatus string

const (
	StatusSubmitted         RequestStatus = "submitted"
	StatusDepartmentQueue   RequestStatus = "department_queue"
	StatusInReview          RequestStatus = "in_review"
	StatusApproved          RequestStatus = "approved"
	StatusRejected          RequestStatus = "rejected"
	StatusEscalated         RequestStatus = "escalated"
	StatusAuthorityReview   RequestStatus = "authority_review"
	StatusFinalApproved     RequestStatus = "final_approved"
	StatusAuthorityRejected RequestStatus = "authority_rejected"
)

// StatusCategory groups statuses for reporting.
type StatusCategory string

const (
	CategoryPending   StatusCategory = "pending"
	CategoryEscalated StatusCategory = "escalated"
	CategoryApproved  StatusCategory = "approved"
	CategoryRejected  StatusCategory = "rejected"
)

// Statuses lists every status in workflow order.
var Statuses = []RequestStatus{
	StatusSubmitted,
	StatusDepartmentQueue,
	StatusInReview,
	StatusApproved,
	StatusRejected,
	StatusEscalated,
	StatusAuthorityReview,
	StatusFinalApproved,
	StatusAuthorityRejected,
}

// allowedTransitions is the single source of truth for the workflow.
// A status with an empty set is terminal.
var allowedTransitions = map[RequestStatus][]RequestStatus{
	StatusSubmitted:         {StatusDepartmentQueue, StatusInReview, StatusApproved, StatusRejected, StatusEscalated},
	StatusDepartmentQueue:   {StatusInReview, StatusApproved, StatusRejected, StatusEscalated},
	StatusInReview:          {StatusApproved, StatusRejected, StatusEscalated},
	StatusApproved:          {},
	StatusRejected:          {StatusSubmitted},
	StatusEscalated:         {StatusAuthorityReview, StatusFinalApproved, StatusAuthorityRejected},
	StatusAuthorityReview:   {StatusFinalApproved, StatusAuthorityRejected},
	StatusFinalApproved:     {},
	StatusAuthorityRejected: {StatusSubmitted},
}

var statusCategories = map[RequestStatus]StatusCategory{
	StatusSubmitted:         CategoryPending,
	StatusDepartmentQueue:   CategoryPending,
	StatusInReview:          CategoryPending,
	StatusEscalated:         CategoryEscalated,
	StatusAuthorityReview:   CategoryEscalated,
	StatusApproved:          CategoryApproved,
	StatusFinalApproved:     CategoryApproved,
	StatusRejected:          CategoryRejected,
	StatusAuthorityRejected: CategoryRejected,
}

// IsValidTransition reports whether a request may move from current to next.
func IsValidTransition(current, next RequestStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Successors returns a copy of the statuses reachable from s.
func (s RequestStatus) Successors() []RequestStatus {
	return append([]RequestStatus{}, allowedTransitions[s]...)
}

// IsTerminal reports whether s is a known status with no outgoing transitions.
func (s RequestStatus) IsTerminal() bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

// Resubmittable reports whether a request in status s may be resubmitted by its owner.
func (s RequestStatus) Resubmittable() bool {
	return s == StatusRejected || s == StatusAuthorityRejected
}

// Category returns the reporting bucket of s; unknown statuses have none.
func (s RequestStatus) Category() (StatusCategory, bool) {
	c, ok := statusCategories[s]
	return c, ok
}

// Resolved reports whether s is a final outcome used for resolution time.
func (s RequestStatus) Resolved() bool {
	c, ok := s.Category()
	return ok && (c == CategoryApproved || c == CategoryRejected)
}
