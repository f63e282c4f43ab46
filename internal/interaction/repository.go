package interaction

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for interaction storage
type Repository interface {
	CheckIn(ctx context.Context, req *CheckInRequest, at time.Time) (*Interaction, error)
	GetByID(ctx context.Context, id string) (*Interaction, error)
	GetByAppointment(ctx context.Context, appointmentID string) (*Interaction, error)
	UpdatePhase(ctx context.Context, id string, phase Phase, at time.Time) (*Interaction, error)
	ListForDay(ctx context.Context, day time.Time) ([]*Interaction, error)
}

// InMemoryRepository is a Repository backed by an in-process map, used in
// development mode and by handler tests.
type InMemoryRepository struct {
	mu           sync.RWMutex
	interactions map[string]*Interaction
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		interactions: make(map[string]*Interaction),
	}
}

// CheckIn creates a new interaction for an appointment.
func (r *InMemoryRepository) CheckIn(ctx context.Context, req *CheckInRequest, at time.Time) (*Interaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.interactions {
		if existing.AppointmentID == req.AppointmentID {
			return nil, ErrAlreadyCheckedIn
		}
	}

	in := &Interaction{
		ID:            uuid.New().String(),
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
		Department:    req.Department,
		Phase:         PhaseCheckedIn,
		CheckInTime:   at,
		CreatedAt:     at,
	}
	r.interactions[in.ID] = in
	return cloneInteraction(in), nil
}

// GetByID retrieves an interaction by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Interaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, ok := r.interactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneInteraction(in), nil
}

// GetByAppointment retrieves the interaction created for an appointment, if any.
func (r *InMemoryRepository) GetByAppointment(ctx context.Context, appointmentID string) (*Interaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, in := range r.interactions {
		if in.AppointmentID == appointmentID {
			return cloneInteraction(in), nil
		}
	}
	return nil, ErrNotFound
}

// UpdatePhase records entry into the given phase at the given instant.
func (r *InMemoryRepository) UpdatePhase(ctx context.Context, id string, phase Phase, at time.Time) (*Interaction, error) {
	if !phase.Valid() {
		return nil, ErrUnknownPhase
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.interactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	in.ApplyPhase(phase, at)
	return cloneInteraction(in), nil
}

// ListForDay returns interactions checked in on the given calendar day (UTC).
func (r *InMemoryRepository) ListForDay(ctx context.Context, day time.Time) ([]*Interaction, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Interaction
	for _, in := range r.interactions {
		if !in.CheckInTime.Before(start) && in.CheckInTime.Before(end) {
			out = append(out, cloneInteraction(in))
		}
	}
	return out, nil
}

func cloneInteraction(in *Interaction) *Interaction {
	cp := *in
	cp.VitalsStartTime = cloneTime(in.VitalsStartTime)
	cp.VitalsEndTime = cloneTime(in.VitalsEndTime)
	cp.ConsultStartTime = cloneTime(in.ConsultStartTime)
	cp.CheckoutTime = cloneTime(in.CheckoutTime)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
