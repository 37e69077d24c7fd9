package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/campusdesk/internal/classifier"
	"github.com/spec-kit/campusdesk/internal/domain"
	"github.com/spec-kit/campusdesk/internal/events"
	"github.com/spec-kit/campusdesk/internal/repository"
	"github.com/spec-kit/campusdesk/pkg/util/errorutil"
)

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (classifier.Classification, error) {
	return classifier.Classification{}, errors.New("upstream unavailable")
}

type stubClassifier struct {
	result classifier.Classification
}

func (s stubClassifier) Classify(context.Context, string) (classifier.Classification, error) {
	return s.result, nil
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc    *RequestService
	repo   *repository.MemoryRequestRepository
	clock  *fixedClock
	events *recordedEvents
}

func newFixture(t *testing.T, primary classifier.TextClassifier) fixture {
	t.Helper()
	repo := repository.NewMemoryRequestRepository()
	clock := &fixedClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recordedEvents{}
	for _, et := range events.LifecycleEvents {
		dispatcher.Subscribe(et, rec.handle)
	}
	svc := NewRequestService(RequestDependencies{
		RequestRepo: repo,
		Classifier:  classifier.NewFallbackClassifier(primary, nil, nil),
		Dispatcher:  dispatcher,
		Now:         clock.Now,
	})
	return fixture{svc: svc, repo: repo, clock: clock, events: rec}
}

func (f fixture) seed(t *testing.T, id, studentID string, status domain.RequestStatus) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.repo.Create(context.Background(), &domain.Request{
		ID:               id,
		StudentName:      "Seed",
		StudentID:        studentID,
		RequestText:      "seeded request",
		Summary:          "seeded request",
		Department:       domain.DepartmentAcademic,
		Status:           status,
		Remarks:          "note",
		AdminRemarks:     "admin note",
		AuthorityRemarks: "authority note",
		AIConfidence:     domain.ConfidenceLow,
		CreatedAt:        now,
		UpdatedAt:        now,
	}))
}

func statusPtr(s domain.RequestStatus) *domain.RequestStatus { return &s }
func strPtr(s string) *string { return &s }

func TestCreateClassifiesWithFallback(t *testing.T) {
	f := newFixture(t, failingClassifier{})

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		RequestText: "My AC in hostel room 204 is broken",
		StudentName: "Asha",
		StudentID:   "S100",
	})
	require.NoError(t, err)

	assert.Equal(t, "REQ-001", req.ID)
	assert.Equal(t, domain.DepartmentHostel, req.Department)
	assert.Equal(t, domain.StatusSubmitted, req.Status)
	assert.Equal(t, domain.ConfidenceLow, req.AIConfidence)
	assert.Equal(t, "My AC in hostel room 204 is broken", req.Summary)
	assert.Empty(t, req.Remarks)
	assert.Empty(t, req.AdminRemarks)
	assert.Empty(t, req.AuthorityRemarks)
	assert.Equal(t, req.CreatedAt, req.UpdatedAt)
	assert.Equal(t, []events.EventType{events.EventRequestCreated}, f.events.types())

	stored, err := f.svc.GetByID(context.Background(), "REQ-001")
	require.NoError(t, err)
	assert.Equal(t, *req, *stored)
}

func TestCreateUsesPrimaryClassification(t *testing.T) {
	f := newFixture(t, stubClassifier{result: classifier.Classification{
		Department: domain.DepartmentFinance,
		Summary:    "Fee refund request",
		Confidence: domain.ConfidenceHigh,
	}})

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		RequestText: "  Please process my refund  ",
		StudentName: " Ravi ",
		StudentID:   "S2",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DepartmentFinance, req.Department)
	assert.Equal(t, domain.ConfidenceHigh, req.AIConfidence)
	assert.Equal(t, "Fee refund request", req.Summary)
	assert.Equal(t, "Please process my refund", req.RequestText)
	assert.Equal(t, "Ravi", req.StudentName)
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		input CreateRequestInput
		field string
	}{
		{"empty text", CreateRequestInput{RequestText: "", StudentName: "Asha", StudentID: "S1"}, "requestText"},
		{"blank text", CreateRequestInput{RequestText: "   ", StudentName: "Asha", StudentID: "S1"}, "requestText"},
		{"blank name", CreateRequestInput{RequestText: "library card", StudentName: "\t", StudentID: "S1"}, "studentName"},
		{"missing student id", CreateRequestInput{RequestText: "library card", StudentName: "Asha"}, "studentId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := f.svc.Create(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))

			domainErr := errorutil.ToDomainError(err)
			assert.Equal(t, tc.field, domainErr.Details["field"])
			assert.Equal(t, tc.field+" is required", domainErr.Message)

			all, err := f.svc.List(context.Background(), ListFilter{})
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, f.events.types())
		})
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	f := newFixture(t, nil)
	for i := 1; i <= 3; i++ {
		req, err := f.svc.Create(context.Background(), CreateRequestInput{RequestText: "book renewal", StudentName: "A", StudentID: "S1"})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("REQ-%03d", i), req.ID)
	}
}

func TestConcurrentCreatesNeverCollide(t *testing.T) {
	f := newFixture(t, nil)
	const n = 40

	var (
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			req, err := f.svc.Create(ctx, CreateRequestInput{
				RequestText: fmt.Sprintf("exam result query %d", i),
				StudentName: "Student",
				StudentID:   fmt.Sprintf("S%d", i),
			})
			if err != nil {
				return err
			}
			mu.Lock()
			ids[req.ID] = true
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, ids, n)
	all, err := f.svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestFormatRequestID(t *testing.T) {
	assert.Equal(t, "REQ-001", FormatRequestID(1))
	assert.Equal(t, "REQ-042", FormatRequestID(42))
	assert.Equal(t, "REQ-1000", FormatRequestID(1000))
}

func TestListAppliesFilters(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "REQ-001", "S1", domain.StatusSubmitted)
	f.clock.Advance(time.Minute)
	f.seed(t, "REQ-002", "S2", domain.StatusApproved)
	f.clock.Advance(time.Minute)
	f.seed(t, "REQ-003", "S1", domain.StatusApproved)

	got, err := f.svc.List(context.Background(), ListFilter{StudentID: strPtr("S1"), Status: strPtr("approved")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "REQ-003", got[0].ID)

	got, err = f.svc.List(context.Background(), ListFilter{Department: strPtr("Academic")})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "REQ-003", got[0].ID)
	assert.Equal(t, "REQ-001", got[2].ID)

	got, err = f.svc.List(context.Background(), ListFilter{Status: strPtr("unknown")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetByIDNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.GetByID(context.Background(), "REQ-999")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeNotFound))
}

func TestTransitionAllowed(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "REQ-001", "S1", domain.StatusInReview)
	f.clock.Advance(2 * time.Hour)

	req, err := f.svc.Transition(context.Background(), "REQ-001", TransitionInput{Status: statusPtr(domain.StatusApproved)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, req.Status)
	assert.Equal(t, f.clock.Now(), req.UpdatedAt)
	assert.Equal(t, "note", req.Remarks)
	assert.Equal(t, []events.EventType{events.EventRequestStatusChanged}, f.events.types())
}

func TestTransitionRejectedByGuard(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "REQ-001", "S1", domain.StatusApproved)

	_, err := f.svc.Transition(context.Background(), "REQ-001", TransitionInput{
		Status:  statusPtr(domain.StatusApproved),
		Remarks: strPtr("again"),
	})
	require.Error(t, err)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeInvalidTransition))
	domainErr := errorutil.ToDomainError(err)
	assert.Equal(t, "approved", domainErr.Details["from"])
	assert.Equal(t, "approved", domainErr.Details["to"])

	stored, err := f.svc.GetByID(context.Background(), "REQ-001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Equal(t, "note", stored.Remarks)
	assert.Empty(t, f.events.types())
}

func TestTransitionUnknownStatus(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "REQ-001", "S1", domain.StatusSubmitted)

	_, err := f.svc.Transition(context.Background(), "REQ-001", TransitionInput{Status: statusPtr("archived")})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeInvalidTransition))
}

func TestTransitionRemarksOnly(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "REQ-001", "S1", domain.StatusEscalated)
	f.clock.Advance(time.Hour)

	req, err := f.svc.Transition(context.Background(), "REQ-001", TransitionInput{
		AuthorityRemarks: strPtr("needs dean sign-off"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEscalated, req.Status)
	assert.Equal(t, "needs dean sign-off", req.AuthorityRemarks)
	assert.Equal(t, "admin note", req.AdminRemarks)
	assert.Equal(t, "note", req.Remarks)
	assert.Equal(t, f.clock.Now(), req.UpdatedAt)
	assert.Equal(t, []events.EventType{events.EventRequestUpdated}, f.events.types())
}

func TestTransitionNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Transition(context.Background(), "REQ-404", TransitionInput{Status: statusPtr(domain.StatusApproved)})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeNotFound))
}

func TestResubmitResetsRequest(t *testing.T) {
	for _, status := range []domain.RequestStatus{domain.StatusRejected, domain.StatusAuthorityRejected} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, nil)
			f.seed(t, "REQ-001", "S1", status)
			f.clock.Advance(time.Hour)

			req, err := f.svc.Resubmit(context.Background(), "REQ-001", ResubmitInput{
				RequestText: " Requesting a scholarship installment plan ",
				StudentID:   "S1",
			})
			require.NoError(t, err)
			assert.Equal(t, domain.StatusSubmitted, req.Status)
			assert.Equal(t, "Requesting a scholarship installment plan", req.RequestText)
			assert.Equal(t, domain.DepartmentFinance, req.Department)
			assert.Equal(t, domain.ConfidenceLow, req.AIConfidence)
			assert.Empty(t, req.Remarks)
			assert.Empty(t, req.AdminRemarks)
			assert.Empty(t, req.AuthorityRemarks)
			assert.Equal(t, f.clock.Now(), req.UpdatedAt)
			assert.Equal(t, []events.EventType{events.EventRequestResubmitted}, f.events.types())
		})
	}
}

func TestResubmitErrors(t *testing.T) {
	cases := []struct {
		name   string
		status domain.RequestStatus
		id     string
		input  ResubmitInput
		code   string
	}{
		{"blank text", domain.StatusRejected, "REQ-001", ResubmitInput{RequestText: "  ", StudentID: "S1"}, errorutil.CodeValidation},
		{"blank text before lookup", domain.StatusRejected, "REQ-404", ResubmitInput{RequestText: "", StudentID: "S1"}, errorutil.CodeValidation},
		{"unknown id", domain.StatusRejected, "REQ-404", ResubmitInput{RequestText: "retry", StudentID: "S1"}, errorutil.CodeNotFound},
		{"other student", domain.StatusRejected, "REQ-001", ResubmitInput{RequestText: "retry", StudentID: "S2"}, errorutil.CodeForbidden},
		{"approved", domain.StatusApproved, "REQ-001", ResubmitInput{RequestText: "retry", StudentID: "S1"}, errorutil.CodeInvalidState},
		{"in review", domain.StatusInReview, "REQ-001", ResubmitInput{RequestText: "retry", StudentID: "S1"}, errorutil.CodeInvalidState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.seed(t, "REQ-001", "S1", tc.status)

			_, err := f.svc.Resubmit(context.Background(), tc.id, tc.input)
			require.Error(t, err)
			assert.True(t, errorutil.HasCode(err, tc.code), "got %v", err)

			stored, err := f.svc.GetByID(context.Background(), "REQ-001")
			require.NoError(t, err)
			assert.Equal(t, tc.status, stored.Status)
			assert.Equal(t, "note", stored.Remarks)
			assert.Empty(t, f.events.types())
		})
	}
}

func TestCreateWrapsBareClassifier(t *testing.T) {
	svc := NewRequestService(RequestDependencies{
		RequestRepo: repository.NewMemoryRequestRepository(),
		Classifier:  failingClassifier{},
	})

	req, err := svc.Create(context.Background(), CreateRequestInput{
		RequestText: "Need a fee waiver form",
		StudentName: "Kiran",
		StudentID:   "S3",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DepartmentFinance, req.Department)
	assert.Equal(t, domain.ConfidenceLow, req.AIConfidence)
}

func TestResubmitTrimsStudentID(t *testing.T) {
	f := newFixture(t, nil)

	created, err := f.svc.Create(context.Background(), CreateRequestInput{
		RequestText: "Library book renewal",
		StudentName: "Asha",
		StudentID:   " S100",
	})
	require.NoError(t, err)
	assert.Equal(t, "S100", created.StudentID)

	_, err = f.svc.Transition(context.Background(), created.ID, TransitionInput{Status: statusPtr(domain.StatusRejected)})
	require.NoError(t, err)

	req, err := f.svc.Resubmit(context.Background(), created.ID, ResubmitInput{
		RequestText: "Library book renewal, second copy",
		StudentID:   " S100",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, req.Status)
}
