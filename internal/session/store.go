package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carewell-health/clinic-portal/internal/clock"
	"github.com/carewell-health/clinic-portal/internal/events"
	"github.com/carewell-health/clinic-portal/internal/interaction"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// DefaultStorageKey is the well-known Redis key holding the serialized
// active session.
const DefaultStorageKey = "clinic:session:active"

// Store owns the single active session. All mutations go through it; the
// ticker, notifier and HTTP surfaces only read. Every mutation is persisted
// to Redis so a process restart resumes the in-progress timer from its
// wall-clock anchors. Persistence is fire-and-forget: a failed write is
// logged and the in-memory session stays authoritative.
type Store struct {
	clock     clock.Clock
	redis     *redis.Client
	key       string
	publisher events.Publisher
	logger    *logging.Logger
	tracer    trace.Tracer

	// Mutations are synchronous; the mutex covers concurrent readers
	// (ticker, HTTP handlers) against the occasional write.
	mu      sync.Mutex
	current *ActiveSession
}

// NewStore creates the session store. The Redis client may be nil, in which
// case sessions are memory-only and do not survive a restart.
func NewStore(redisClient *redis.Client, key string, clk clock.Clock, publisher events.Publisher, logger *logging.Logger) *Store {
	if key == "" {
		key = DefaultStorageKey
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		clock:     clk,
		redis:     redisClient,
		key:       key,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("clinicportal.internal.session.store"),
	}
}

// Load restores a persisted session into memory. Corrupt or
// schema-mismatched entries are discarded and treated as "no session";
// loading never hard-fails the boot.
func (s *Store) Load(ctx context.Context) {
	if s.redis == nil {
		return
	}
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return
	}
	if err != nil {
		s.logger.Warn("session load failed, starting without a session", "error", err)
		return
	}

	var sess ActiveSession
	if err := json.Unmarshal(data, &sess); err != nil || !sess.CurrentPhase.Valid() || sess.InteractionID == "" {
		s.logger.Warn("discarding corrupt persisted session", "error", err)
		if delErr := s.redis.Del(ctx, s.key).Err(); delErr != nil {
			s.logger.Warn("failed to discard corrupt session entry", "error", delErr)
		}
		return
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	s.logger.Info("resumed persisted session",
		"interaction_id", sess.InteractionID,
		"phase", string(sess.CurrentPhase),
		"total_elapsed_seconds", sess.TotalElapsedSeconds,
	)
}

// Start constructs a new active session. An existing session is overwritten;
// the overwrite is observable through a session.discarded event rather than
// silent.
func (s *Store) Start(ctx context.Context, init Init) (*ActiveSession, error) {
	if err := init.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.current; prev != nil && !prev.Completed() {
		s.logger.Warn("discarding previous active session",
			"interaction_id", prev.InteractionID,
			"phase", string(prev.CurrentPhase),
		)
		s.publish(events.Envelope{Type: events.TypeSessionDiscarded, Payload: events.SessionDiscardedV1{
			EventID:             uuid.NewString(),
			InteractionID:       prev.InteractionID,
			Phase:               string(prev.CurrentPhase),
			TotalElapsedSeconds: prev.TotalElapsedSeconds,
			DiscardedAt:         now,
		}})
	}

	sess := &ActiveSession{
		InteractionID:            init.InteractionID,
		AppointmentID:            init.AppointmentID,
		PatientID:                init.PatientID,
		PatientName:              init.PatientName,
		Department:               init.Department,
		Priority:                 init.Priority,
		AppointmentType:          init.AppointmentType,
		CurrentPhase:             init.CurrentPhase,
		StartTime:                now,
		PhaseStartTime:           now,
		TotalElapsedSeconds:      0,
		PredictedDurationSeconds: init.PredictedDurationSeconds,
		PhaseRecords: []interaction.PhaseRecord{
			{Phase: init.CurrentPhase, StartTime: now},
		},
	}
	s.current = sess
	s.persist(ctx, sess)

	s.publish(events.Envelope{Type: events.TypeSessionStarted, Payload: events.SessionStartedV1{
		EventID:       uuid.NewString(),
		InteractionID: sess.InteractionID,
		AppointmentID: sess.AppointmentID,
		PatientID:     sess.PatientID,
		Department:    sess.Department,
		Phase:         string(sess.CurrentPhase),
		StartedAt:     now,
	}})

	return sess.Clone(), nil
}

// Advance moves the session to the next phase: the outgoing phase record is
// frozen with its duration, the duration accumulates into the completed
// total, and a fresh record opens at the current instant. Reaching the
// terminal phase emits a session.finished event carrying the true total.
func (s *Store) Advance(ctx context.Context) (*ActiveSession, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.current
	if sess == nil {
		return nil, ErrNoSession
	}

	next, err := interaction.Advance(sess.CurrentPhase)
	if err != nil {
		return nil, err
	}

	elapsed := clock.ElapsedSeconds(sess.PhaseStartTime, now)
	if n := len(sess.PhaseRecords); n > 0 {
		sess.PhaseRecords[n-1].Close(now, elapsed)
	}
	sess.TotalElapsedSeconds += elapsed

	from := sess.CurrentPhase
	sess.CurrentPhase = next
	sess.PhaseStartTime = now
	sess.PhaseRecords = append(sess.PhaseRecords, interaction.PhaseRecord{Phase: next, StartTime: now})

	s.persist(ctx, sess)

	s.publish(events.Envelope{Type: events.TypePhaseAdvanced, Payload: events.PhaseAdvancedV1{
		EventID:              uuid.NewString(),
		InteractionID:        sess.InteractionID,
		FromPhase:            string(from),
		ToPhase:              string(next),
		PhaseDurationSeconds: elapsed,
		TotalElapsedSeconds:  sess.TotalElapsedSeconds,
		OccurredAt:           now,
	}})

	if next.Terminal() {
		s.publish(events.Envelope{Type: events.TypeSessionFinished, Payload: events.SessionFinishedV1{
			EventID:             uuid.NewString(),
			InteractionID:       sess.InteractionID,
			AppointmentID:       sess.AppointmentID,
			TotalElapsedSeconds: sess.TotalElapsedSeconds,
			FinishedAt:          now,
		}})
	}

	return sess.Clone(), nil
}

// End clears the active session and its persisted copy entirely.
func (s *Store) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoSession
	}
	s.logger.Info("ending session", "interaction_id", s.current.InteractionID)
	s.current = nil

	if s.redis != nil {
		if err := s.redis.Del(ctx, s.key).Err(); err != nil {
			s.logger.Error("failed to clear persisted session", "error", err)
		}
	}
	return nil
}

// Get returns a copy of the active session, or nil when none exists.
func (s *Store) Get() *ActiveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *Store) persist(ctx context.Context, sess *ActiveSession) {
	if s.redis == nil {
		return
	}
	ctx, span := s.tracer.Start(ctx, "session.store.persist")
	defer span.End()
	span.SetAttributes(
		attribute.String("interaction.id", sess.InteractionID),
		attribute.String("interaction.phase", string(sess.CurrentPhase)),
	)

	data, err := json.Marshal(sess)
	if err != nil {
		s.logger.Error("failed to serialize session", "error", err)
		return
	}
	if err := s.redis.Set(ctx, s.key, data, 0).Err(); err != nil {
		s.logger.Error("failed to persist session", "error", fmt.Errorf("session: set %s: %w", s.key, err))
	}
}

func (s *Store) publish(evt events.Envelope) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(evt)
}
