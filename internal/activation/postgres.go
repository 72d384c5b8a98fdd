package activation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists OTP sessions in PostgreSQL so in-flight leases
// survive process restarts.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed session store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const sessionColumns = `id, user_id, service_id, operator_id, number, COALESCE(otp, ''), session_token, status, created_at`

// Create inserts a new pending session.
func (s *PostgresStore) Create(ctx context.Context, session Session) error {
	userID, err := uuid.Parse(session.UserID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO otp_sessions (id, user_id, service_id, operator_id, number, otp, session_token, status, created_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)`,
		session.ID, userID, session.ServiceID, session.OperatorID, session.Number,
		session.OTP, session.SessionToken, string(session.Status), session.CreatedAt.UTC())
	return err
}

// Find fetches a session by lease id.
func (s *PostgresStore) Find(ctx context.Context, leaseID string) (Session, error) {
	row := s.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM otp_sessions WHERE id = $1`, leaseID)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return session, nil
}

// ListByUser returns the user's sessions, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT `+sessionColumns+` FROM otp_sessions WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// UpdateStatus applies a terminal transition. The pending guard in the WHERE
// clause makes the one-way invariant hold even under concurrent updates.
func (s *PostgresStore) UpdateStatus(ctx context.Context, leaseID string, status Status, otp string) (Session, error) {
	if err := validateTransition(status, otp); err != nil {
		return Session{}, err
	}

	row := s.db.QueryRow(ctx, `UPDATE otp_sessions SET status = $1, otp = NULLIF($2, '')
        WHERE id = $3 AND status = 'pending'
        RETURNING `+sessionColumns, string(status), otp, leaseID)
	session, err := scanSession(row)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Session{}, err
	}

	// No pending row matched: distinguish terminal from missing.
	if _, ferr := s.Find(ctx, leaseID); ferr != nil {
		return Session{}, ferr
	}
	return Session{}, ErrSessionTerminal
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		session   Session
		userID    uuid.UUID
		status    string
		createdAt time.Time
	)
	if err := row.Scan(&session.ID, &userID, &session.ServiceID, &session.OperatorID,
		&session.Number, &session.OTP, &session.SessionToken, &status, &createdAt); err != nil {
		return Session{}, err
	}
	session.UserID = userID.String()
	session.Status = Status(status)
	session.CreatedAt = createdAt.UTC()
	return session, nil
}
