package dto

import (
	"time"

	"github.com/spec-kit/campusdesk/internal/domain"
)

// CreateRequestBody payload for POST /api/requests.
type CreateRequestBody struct {
	RequestText string `json:"requestText"`
	StudentName string `json:"studentName"`
	StudentID   string `json:"studentId"`
}

// UpdateStatusBody payload for PATCH /api/requests/:id/status. Absent fields
// are left unchanged.
type UpdateStatusBody struct {
	Status           *string `json:"status"`
	Remarks          *string `json:"remarks"`
	AdminRemarks     *string `json:"adminRemarks"`
	AuthorityRemarks *string `json:"authorityRemarks"`
}

// ResubmitBody payload for PATCH /api/requests/:id/resubmit.
type ResubmitBody struct {
	RequestText string `json:"requestText"`
	StudentID   string `json:"studentId"`
}

// RequestListQuery captures query filters for GET /api/requests.
type RequestListQuery struct {
	StudentID  string `query:"studentId"`
	Status     string `query:"status"`
	Department string `query:"department"`
}

// RequestResponse is the public representation of a request.
type RequestResponse struct {
	ID               string               `json:"id"`
	StudentName      string               `json:"student_name"`
	StudentID        string               `json:"student_id"`
	RequestText      string               `json:"request_text"`
	Summary          string               `json:"summary"`
	Department       domain.Department    `json:"department"`
	Status           domain.RequestStatus `json:"status"`
	Remarks          string               `json:"remarks"`
	AdminRemarks     string               `json:"admin_remarks"`
	AuthorityRemarks string               `json:"authority_remarks"`
	AIConfidence     domain.Confidence    `json:"ai_confidence"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// StatsResponse is the public representation of the request summary.
type StatsResponse struct {
	Total              int      `json:"total"`
	Pending            int      `json:"pending"`
	Escalated          int      `json:"escalated"`
	Approved           int      `json:"approved"`
	Rejected           int      `json:"rejected"`
	AvgResolutionHours *float64 `json:"avgResolutionHours"`
}

// Envelope wraps every successful response body.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// NewRequestResponse maps a domain request.
func NewRequestResponse(r *domain.Request) RequestResponse {
	return RequestResponse{
		ID:               r.ID,
		StudentName:      r.StudentName,
		StudentID:        r.StudentID,
		RequestText:      r.RequestText,
		Summary:          r.Summary,
		Department:       r.Department,
		Status:           r.Status,
		Remarks:          r.Remarks,
		AdminRemarks:     r.AdminRemarks,
		AuthorityRemarks: r.AuthorityRemarks,
		AIConfidence:     r.AIConfidence,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// NewStatsResponse maps domain stats.
func NewStatsResponse(s domain.RequestStats) StatsResponse {
	return StatsResponse{
		Total:              s.Total,
		Pending:            s.Pending,
		Escalated:          s.Escalated,
		Approved:           s.Approved,
		Rejected:           s.Rejected,
		AvgResolutionHours: s.AvgResolutionHours,
	}
}
