package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campusdesk/internal/api/dto"
	"github.com/spec-kit/campusdesk/internal/domain"
	"github.com/spec-kit/campusdesk/internal/service"
	apperrors "github.com/spec-kit/campusdesk/pkg/util/errorutil"
)

// RequestsHandler manages student request endpoints.
type RequestsHandler struct {
	requests *service.RequestService
	stats    *service.StatsService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService, stats *service.StatsService) *RequestsHandler {
	return &RequestsHandler{requests: requests, stats: stats}
}

// ListRequests GET /api/requests.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	var query dto.RequestListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}

	requests, err := h.requests.List(c.UserContext(), service.ListFilter{
		StudentID:  optional(query.StudentID),
		Status:     optional(query.Status),
		Department: optional(query.Department),
	})
	if err != nil {
		return err
	}

	items := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.NewRequestResponse(&requests[i]))
	}
	return c.JSON(dto.Envelope{Success: true, Data: items})
}

// Stats GET /api/requests/stats/summary.
func (h *RequestsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Data: dto.NewStatsResponse(stats)})
}

// GetRequest GET /api/requests/:id.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	request, err := h.requests.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Data: dto.NewRequestResponse(request)})
}

// CreateRequest POST /api/requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	var body dto.CreateRequestBody
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.requests.Create(c.UserContext(), service.CreateRequestInput{
		RequestText: body.RequestText,
		StudentName: body.StudentName,
		StudentID:   body.StudentID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Envelope{Success: true, Data: dto.NewRequestResponse(request)})
}

// UpdateStatus PATCH /api/requests/:id/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	var body dto.UpdateStatusBody
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TransitionInput{
		Remarks:          body.Remarks,
		AdminRemarks:     body.AdminRemarks,
		AuthorityRemarks: body.AuthorityRemarks,
	}
	// An empty status means "leave unchanged".
	if body.Status != nil && *body.Status != "" {
		status := domain.RequestStatus(*body.Status)
		input.Status = &status
	}

	request, err := h.requests.Transition(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Data: dto.NewRequestResponse(request)})
}

// Resubmit PATCH /api/requests/:id/resubmit.
func (h *RequestsHandler) Resubmit(c *fiber.Ctx) error {
	var body dto.ResubmitBody
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.requests.Resubmit(c.UserContext(), c.Params("id"), service.ResubmitInput{
		RequestText: body.RequestText,
		StudentID:   body.StudentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Data: dto.NewRequestResponse(request)})
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
