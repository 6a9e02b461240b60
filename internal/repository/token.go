package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/contentflow/partnerhub/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token has expired")
)

type TokenRepository interface {
	Create(token *model.MagicToken) error
	ByToken(token string) (*model.MagicToken, error)
	MarkUsed(token string, usedAt time.Time) error
	Delete(token string) error
	DeleteExpired(now time.Time, usedGrace time.Duration) (int64, error)
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.MagicToken) error {
	if token.IssuedAt.IsZero() {
		token.IssuedAt = time.Now()
	}

	query := `
		INSERT INTO magic_tokens (token, email, issued_at, expires_at, used_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query,
		token.Token,
		token.Email,
		token.IssuedAt,
		token.ExpiresAt,
		token.UsedAt,
	)
	return err
}

func (r *tokenRepository) ByToken(token string) (*model.MagicToken, error) {
	t := &model.MagicToken{}
	query := `SELECT * FROM magic_tokens WHERE token = $1`

	err := r.db.Get(t, query, token)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}

	return t, err
}

// MarkUsed records the first successful verification. The row is kept so
// repeated verifies within the grace window still succeed; only the first
// call sets used_at.
func (r *tokenRepository) MarkUsed(token string, usedAt time.Time) error {
	query := `UPDATE magic_tokens SET used_at = $1 WHERE token = $2 AND used_at IS NULL`
	_, err := r.db.Exec(query, usedAt, token)
	return err
}

func (r *tokenRepository) Delete(token string) error {
	query := `DELETE FROM magic_tokens WHERE token = $1`
	_, err := r.db.Exec(query, token)
	return err
}

// DeleteExpired purges tokens past expiry and used tokens past the grace
// window. Safe to call redundantly; a no-op on an already-clean table.
func (r *tokenRepository) DeleteExpired(now time.Time, usedGrace time.Duration) (int64, error) {
	query := `
		DELETE FROM magic_tokens
		WHERE expires_at < $1
		   OR (used_at IS NOT NULL AND used_at < $2)
	`
	result, err := r.db.Exec(query, now, now.Add(-usedGrace))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
