package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage
type Repository interface {
	Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	ListForDay(ctx context.Context, day time.Time) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

// InMemoryRepository is a Repository backed by an in-process map, used in
// development mode and by queue tests.
type InMemoryRepository struct {
	mu           sync.RWMutex
	appointments map[string]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appointments: make(map[string]*Appointment),
	}
}

// Create schedules a new appointment in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:              uuid.New().String(),
		PatientID:       req.PatientID,
		PatientName:     req.PatientName,
		Department:      req.Department,
		Priority:        req.Priority,
		AppointmentType: req.AppointmentType,
		Status:          "scheduled",
		ScheduledFor:    req.ScheduledFor,
		CreatedAt:       time.Now().UTC(),
	}
	if appt.Priority == "" {
		appt.Priority = PriorityRoutine
	}

	r.mu.Lock()
	r.appointments[appt.ID] = appt
	r.mu.Unlock()

	cp := *appt
	return &cp, nil
}

// GetByID retrieves an appointment by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *appt
	return &cp, nil
}

// ListForDay returns appointments scheduled on the given calendar day (UTC),
// earliest first.
func (r *InMemoryRepository) ListForDay(ctx context.Context, day time.Time) ([]*Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.appointments {
		if !appt.ScheduledFor.Before(start) && appt.ScheduledFor.Before(end) {
			cp := *appt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out, nil
}

// UpdateStatus sets the scheduling status of an appointment.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok {
		return ErrNotFound
	}
	appt.Status = status
	return nil
}
