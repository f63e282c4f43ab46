package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// appointmentDB defines the database interface needed by PostgresRepository
type appointmentDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db appointmentDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db appointmentDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const appointmentColumns = `id, patient_id, patient_name, department, priority,
	appointment_type, status, scheduled_for, created_at`

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityRoutine
	}

	id := uuid.New()
	query := `
		INSERT INTO appointments (id, patient_id, patient_name, department, priority, appointment_type, status, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled', $7)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.PatientID,
		req.PatientName,
		req.Department,
		priority,
		req.AppointmentType,
		req.ScheduledFor,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	return &Appointment{
		ID:              id.String(),
		PatientID:       req.PatientID,
		PatientName:     req.PatientName,
		Department:      req.Department,
		Priority:        priority,
		AppointmentType: req.AppointmentType,
		Status:          "scheduled",
		ScheduledFor:    req.ScheduledFor,
		CreatedAt:       createdAt,
	}, nil
}

// GetByID fetches an appointment by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appt Appointment
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&appt.ID,
		&appt.PatientID,
		&appt.PatientName,
		&appt.Department,
		&appt.Priority,
		&appt.AppointmentType,
		&appt.Status,
		&appt.ScheduledFor,
		&appt.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return &appt, nil
}

// ListForDay returns appointments scheduled on the given calendar day (UTC),
// earliest first.
func (r *PostgresRepository) ListForDay(ctx context.Context, day time.Time) ([]*Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE scheduled_for >= $1 AND scheduled_for < $2
		ORDER BY scheduled_for ASC
	`
	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("appointments: select day failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.PatientID,
			&appt.PatientName,
			&appt.Department,
			&appt.Priority,
			&appt.AppointmentType,
			&appt.Status,
			&appt.ScheduledFor,
			&appt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, &appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate day failed: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the scheduling status of an appointment.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("appointments: update status failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
