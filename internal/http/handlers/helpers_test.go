package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/carewell-health/clinic-portal/internal/appointments"
	"github.com/carewell-health/clinic-portal/internal/clock"
	"github.com/carewell-health/clinic-portal/internal/interaction"
	"github.com/carewell-health/clinic-portal/internal/notify"
	"github.com/carewell-health/clinic-portal/internal/queue"
	"github.com/carewell-health/clinic-portal/internal/session"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// fixture wires in-memory collaborators around a fake clock for handler
// tests.
type fixture struct {
	clock        *clock.Fake
	appointments *appointments.InMemoryRepository
	interactions *interaction.InMemoryRepository
	store        *session.Store
	refresher    *queue.Refresher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	appts := appointments.NewInMemoryRepository()
	ins := interaction.NewInMemoryRepository()
	return &fixture{
		clock:        clk,
		appointments: appts,
		interactions: ins,
		store:        session.NewStore(nil, session.DefaultStorageKey, clk, nil, logging.Default()),
		refresher:    queue.NewRefresher(appts, ins, nil, clk, logging.Default()),
	}
}

func (f *fixture) scheduleAppointment(t *testing.T, name, department, priority string) *appointments.Appointment {
	t.Helper()
	appt, err := f.appointments.Create(context.Background(), &appointments.CreateAppointmentRequest{
		PatientID:       "patient-" + name,
		PatientName:     name,
		Department:      department,
		Priority:        priority,
		AppointmentType: "CONSULTATION",
		ScheduledFor:    f.clock.Now().Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return appt
}

func (f *fixture) checkIn(t *testing.T, appt *appointments.Appointment) *interaction.Interaction {
	t.Helper()
	in, err := f.interactions.CheckIn(context.Background(), &interaction.CheckInRequest{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		Department:    appt.Department,
	}, f.clock.Now())
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	return in
}

// stubPredictor returns a fixed estimate or error.
type stubPredictor struct {
	seconds int64
	err     error
}

func (s *stubPredictor) PredictDurationSeconds(ctx context.Context, department, priority, appointmentType string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.seconds, nil
}

// captureToasts records every toast pushed at it.
type captureToasts struct {
	toasts []notify.Toast
}

func (c *captureToasts) PushToast(ctx context.Context, toast notify.Toast) error {
	c.toasts = append(c.toasts, toast)
	return nil
}

// failingInteractionRepo wraps the in-memory repository and fails writes.
type failingInteractionRepo struct {
	*interaction.InMemoryRepository
	updateErr error
}

func (r *failingInteractionRepo) UpdatePhase(ctx context.Context, id string, phase interaction.Phase, at time.Time) (*interaction.Interaction, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	return r.InMemoryRepository.UpdatePhase(ctx, id, phase, at)
}
