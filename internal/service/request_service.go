package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/campusdesk/internal/classifier"
	"github.com/spec-kit/campusdesk/internal/domain"
	"github.com/spec-kit/campusdesk/internal/events"
	"github.com/spec-kit/campusdesk/internal/observability"
	"github.com/spec-kit/campusdesk/internal/repository"
	"github.com/spec-kit/campusdesk/pkg/util/errorutil"
)

// RequestService coordinates the request lifecycle.
type RequestService struct {
	requests   repository.RequestRepository
	classifier *classifier.FallbackClassifier
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	validator  *validator.Validate
	now        func() time.Time
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	Classifier  classifier.TextClassifier
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Validator   *validator.Validate
	Now         func() time.Time
}

// CreateRequestInput describes a new submission.
type CreateRequestInput struct {
	RequestText string `json:"requestText" validate:"required"`
	StudentName string `json:"studentName" validate:"required"`
	StudentID   string `json:"studentId" validate:"required"`
}

// TransitionInput describes a status change. Nil fields are left untouched.
type TransitionInput struct {
	Status           *domain.RequestStatus
	Remarks          *string
	AdminRemarks     *string
	AuthorityRemarks *string
}

// ResubmitInput describes a resubmission by the owning student.
type ResubmitInput struct {
	RequestText string `json:"requestText" validate:"required"`
	StudentID   string `json:"studentId"`
}

// ListFilter describes listing filters. Nil fields are not applied.
type ListFilter struct {
	StudentID  *string
	Status     *string
	Department *string
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	validate := deps.Validator
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(jsonFieldName)

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	// Classification must never fail a create or resubmit.
	cls, ok := deps.Classifier.(*classifier.FallbackClassifier)
	if !ok {
		cls = classifier.NewFallbackClassifier(deps.Classifier, logger, deps.Metrics)
	}

	return &RequestService{
		requests:   deps.RequestRepo,
		classifier: cls,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		validator:  validate,
		now:        now,
	}
}

// Create classifies and persists a new request in the submitted status.
func (s *RequestService) Create(ctx context.Context, input CreateRequestInput) (*domain.Request, error) {
	input.RequestText = strings.TrimSpace(input.RequestText)
	input.StudentName = strings.TrimSpace(input.StudentName)
	input.StudentID = strings.TrimSpace(input.StudentID)
	if err := s.validate(input); err != nil {
		return nil, err
	}

	result, _ := s.classifier.Classify(ctx, input.RequestText)

	seq, err := s.requests.NextSequence(ctx)
	if err != nil {
		return nil, errorutil.NewInternalError(fmt.Errorf("reserve request number: %w", err))
	}

	now := s.now()
	request := &domain.Request{
		ID:           FormatRequestID(seq),
		StudentName:  input.StudentName,
		StudentID:    input.StudentID,
		RequestText:  input.RequestText,
		Summary:      result.Summary,
		Department:   result.Department,
		Status:       domain.StatusSubmitted,
		AIConfidence: result.Confidence,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, errorutil.NewInternalError(fmt.Errorf("create request: %w", err))
	}

	s.logger.Info("request created",
		zap.String("request_id", request.ID),
		zap.String("department", string(request.Department)),
		zap.String("confidence", string(request.AIConfidence)),
	)
	s.publishEvent(ctx, events.EventRequestCreated, request, events.RequestCreatedPayload{
		Department:   request.Department,
		AIConfidence: request.AIConfidence,
	})
	return request, nil
}

// List returns requests matching every supplied filter, newest first.
func (s *RequestService) List(ctx context.Context, filter ListFilter) ([]domain.Request, error) {
	repoFilter := repository.RequestFilter{StudentID: filter.StudentID}
	if filter.Status != nil {
		status := domain.RequestStatus(*filter.Status)
		repoFilter.Status = &status
	}
	if filter.Department != nil {
		dept := domain.Department(*filter.Department)
		repoFilter.Department = &dept
	}

	requests, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, errorutil.NewInternalError(fmt.Errorf("list requests: %w", err))
	}
	return requests, nil
}

// GetByID returns a single request.
func (s *RequestService) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	return s.load(ctx, id)
}

// Transition moves a request to a new status and/or updates its remarks.
func (s *RequestService) Transition(ctx context.Context, id string, input TransitionInput) (*domain.Request, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := request.Status
	if input.Status != nil {
		if !domain.IsValidTransition(previous, *input.Status) {
			return nil, errorutil.NewInvalidTransition(string(previous), string(*input.Status))
		}
		request.Status = *input.Status
	}
	if input.Remarks != nil {
		request.Remarks = *input.Remarks
	}
	if input.AdminRemarks != nil {
		request.AdminRemarks = *input.AdminRemarks
	}
	if input.AuthorityRemarks != nil {
		request.AuthorityRemarks = *input.AuthorityRemarks
	}
	request.UpdatedAt = s.now()

	if err := s.save(ctx, request); err != nil {
		return nil, err
	}

	if request.Status != previous {
		s.metrics.RecordTransition(string(previous), string(request.Status))
		s.logger.Info("request status changed",
			zap.String("request_id", request.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(request.Status)),
		)
		s.publishEvent(ctx, events.EventRequestStatusChanged, request, events.RequestStatusChangedPayload{
			OldStatus: previous,
			NewStatus: request.Status,
		})
		return request, nil
	}

	// UpdatedAt moved, so resolution time may have changed.
	s.publishEvent(ctx, events.EventRequestUpdated, request, events.RequestUpdatedPayload{
		Status: request.Status,
	})
	return request, nil
}

// Resubmit lets the owning student revise a rejected request and send it
// back to the start of the workflow.
func (s *RequestService) Resubmit(ctx context.Context, id string, input ResubmitInput) (*domain.Request, error) {
	input.RequestText = strings.TrimSpace(input.RequestText)
	input.StudentID = strings.TrimSpace(input.StudentID)
	if err := s.validate(input); err != nil {
		return nil, err
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.StudentID != input.StudentID {
		return nil, errorutil.NewForbidden("not authorized to resubmit this request")
	}
	if !request.Status.Resubmittable() {
		return nil, errorutil.NewStateError("only rejected requests can be resubmitted", map[string]any{
			"status": string(request.Status),
		})
	}

	result, _ := s.classifier.Classify(ctx, input.RequestText)

	previous := request.Status
	request.RequestText = input.RequestText
	request.Summary = result.Summary
	request.Department = result.Department
	request.AIConfidence = result.Confidence
	request.Status = domain.StatusSubmitted
	request.ClearRemarks()
	request.UpdatedAt = s.now()

	if err := s.save(ctx, request); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(previous), string(request.Status))
	s.logger.Info("request resubmitted",
		zap.String("request_id", request.ID),
		zap.String("previous_status", string(previous)),
		zap.String("department", string(request.Department)),
	)
	s.publishEvent(ctx, events.EventRequestResubmitted, request, events.RequestResubmittedPayload{
		OldStatus:  previous,
		Department: request.Department,
	})
	return request, nil
}

// FormatRequestID renders a sequence number as a public request id.
func FormatRequestID(seq int64) string {
	return fmt.Sprintf("REQ-%03d", seq)
}

func (s *RequestService) load(ctx context.Context, id string) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewNotFound("request", map[string]any{"id": id})
		}
		return nil, errorutil.NewInternalError(fmt.Errorf("load request %s: %w", id, err))
	}
	return request, nil
}

func (s *RequestService) save(ctx context.Context, request *domain.Request) error {
	if err := s.requests.Update(ctx, request); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorutil.NewNotFound("request", map[string]any{"id": request.ID})
		}
		return errorutil.NewInternalError(fmt.Errorf("update request %s: %w", request.ID, err))
	}
	return nil
}

func (s *RequestService) validate(input any) error {
	err := s.validator.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field := fieldErrs[0].Field()
		return errorutil.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return errorutil.NewValidationError(err.Error(), nil)
}

func (s *RequestService) publishEvent(ctx context.Context, eventType events.EventType, request *domain.Request, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.NewEvent(eventType, request.ID, events.Actor{StudentID: request.StudentID}, request.UpdatedAt, payload)
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(eventType)),
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
