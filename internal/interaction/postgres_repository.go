package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// interactionDB defines the database interface needed by PostgresRepository
type interactionDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores interactions in the relational database.
type PostgresRepository struct {
	db interactionDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("interaction: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db interactionDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const interactionColumns = `id, appointment_id, patient_id, department, phase,
	check_in_time, vitals_start_time, vitals_end_time, consult_start_time, checkout_time, created_at`

// CheckIn inserts a new interaction row for an appointment.
func (r *PostgresRepository) CheckIn(ctx context.Context, req *CheckInRequest, at time.Time) (*Interaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := r.GetByAppointment(ctx, req.AppointmentID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyCheckedIn
	}

	id := uuid.New()
	query := `
		INSERT INTO interactions (id, appointment_id, patient_id, department, phase, check_in_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.AppointmentID,
		req.PatientID,
		req.Department,
		string(PhaseCheckedIn),
		at,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("interaction: insert failed: %w", err)
	}

	return &Interaction{
		ID:            id.String(),
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
		Department:    req.Department,
		Phase:         PhaseCheckedIn,
		CheckInTime:   at,
		CreatedAt:     createdAt,
	}, nil
}

// GetByID fetches an interaction by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByAppointment fetches the interaction created for an appointment.
func (r *PostgresRepository) GetByAppointment(ctx context.Context, appointmentID string) (*Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE appointment_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, appointmentID))
}

// UpdatePhase records entry into the given phase and stamps its timestamp
// column. The stamp is written only once; re-entry is not a valid transition
// and is rejected by the phase machine before reaching here.
func (r *PostgresRepository) UpdatePhase(ctx context.Context, id string, phase Phase, at time.Time) (*Interaction, error) {
	if !phase.Valid() {
		return nil, ErrUnknownPhase
	}

	column := phaseColumn(phase)
	var query string
	if column == "" {
		query = `UPDATE interactions SET phase = $2 WHERE id = $1 RETURNING ` + interactionColumns
		return r.scanOne(r.db.QueryRow(ctx, query, id, string(phase)))
	}
	query = `UPDATE interactions SET phase = $2, ` + column + ` = $3 WHERE id = $1 RETURNING ` + interactionColumns
	return r.scanOne(r.db.QueryRow(ctx, query, id, string(phase), at))
}

// ListForDay returns interactions checked in on the given calendar day (UTC).
func (r *PostgresRepository) ListForDay(ctx context.Context, day time.Time) ([]*Interaction, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT ` + interactionColumns + `
		FROM interactions
		WHERE check_in_time >= $1 AND check_in_time < $2
		ORDER BY check_in_time ASC
	`
	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("interaction: select day failed: %w", err)
	}
	defer rows.Close()

	var out []*Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interaction: iterate day failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Interaction, error) {
	in, err := scanInteraction(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return in, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner) (*Interaction, error) {
	var in Interaction
	var phase string
	if err := row.Scan(
		&in.ID,
		&in.AppointmentID,
		&in.PatientID,
		&in.Department,
		&phase,
		&in.CheckInTime,
		&in.VitalsStartTime,
		&in.VitalsEndTime,
		&in.ConsultStartTime,
		&in.CheckoutTime,
		&in.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("interaction: scan failed: %w", err)
	}
	in.Phase = Phase(phase)
	return &in, nil
}

func phaseColumn(p Phase) string {
	switch p {
	case PhaseVitalsInProgress:
		return "vitals_start_time"
	case PhaseVitalsComplete:
		return "vitals_end_time"
	case PhaseConsultInProgress:
		return "consult_start_time"
	case PhaseCompleted:
		return "checkout_time"
	default:
		return ""
	}
}
