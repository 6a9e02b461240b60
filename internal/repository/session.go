package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/contentflow/partnerhub/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(session *model.PartnerSession) error
	ByToken(sessionToken string) (*model.PartnerSession, error)
	ByPartnerID(partnerID string) (*model.PartnerSession, error)
	Delete(sessionToken string) (bool, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.PartnerSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO partner_sessions (session_token, partner_id, email, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(query,
		session.SessionToken,
		session.PartnerID,
		session.Email,
		session.CreatedAt,
	)
	return err
}

func (r *sessionRepository) ByToken(sessionToken string) (*model.PartnerSession, error) {
	s := &model.PartnerSession{}
	query := `SELECT * FROM partner_sessions WHERE session_token = $1`

	err := r.db.Get(s, query, sessionToken)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}

	return s, err
}

// ByPartnerID returns the newest session for a partner. Verification reuses
// it instead of creating a duplicate when a partner re-verifies.
func (r *sessionRepository) ByPartnerID(partnerID string) (*model.PartnerSession, error) {
	s := &model.PartnerSession{}
	query := `SELECT * FROM partner_sessions WHERE partner_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.db.Get(s, query, partnerID)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}

	return s, err
}

func (r *sessionRepository) Delete(sessionToken string) (bool, error) {
	query := `DELETE FROM partner_sessions WHERE session_token = $1`

	result, err := r.db.Exec(query, sessionToken)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *sessionRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	query := `DELETE FROM partner_sessions WHERE created_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
