package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/campusdesk/internal/domain"
)

// MemoryRequestRepository keeps requests in process memory.
type MemoryRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]domain.Request
	seq      int64
}

// NewMemoryRequestRepository returns an empty in-memory store.
func NewMemoryRequestRepository() *MemoryRequestRepository {
	return &MemoryRequestRepository{requests: make(map[string]domain.Request)}
}

func (r *MemoryRequestRepository) Create(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[request.ID] = *request
	return nil
}

func (r *MemoryRequestRepository) Update(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.requests[request.ID]
	if !ok {
		return ErrNotFound
	}
	updated := *request
	updated.StudentName = current.StudentName
	updated.StudentID = current.StudentID
	updated.CreatedAt = current.CreatedAt
	r.requests[request.ID] = updated
	return nil
}

func (r *MemoryRequestRepository) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &request, nil
}

func (r *MemoryRequestRepository) List(_ context.Context, filter RequestFilter) ([]domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []domain.Request{}
	for _, request := range r.requests {
		if filter.StudentID != nil && request.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && request.Status != *filter.Status {
			continue
		}
		if filter.Department != nil && request.Department != *filter.Department {
			continue
		}
		result = append(result, request)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRequestRepository) NextSequence(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}
