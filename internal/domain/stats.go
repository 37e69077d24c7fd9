package domain

// RequestStats summarizes the whole request set.
type RequestStats struct {
	Total              int
	Pending            int
	Escalated          int
	Approved           int
	Rejected           int
	AvgResolutionHours *float64
}
