package repository

import (
	"time"

	"github.com/contentflow/partnerhub/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type FlagRepository interface {
	// Create inserts a flag and reports whether a row was actually written.
	// A (partner_id, flag) pair that already exists is left untouched, which
	// keeps concurrent sweeps idempotent without an application lock.
	Create(flag *model.PartnerFlag) (bool, error)
	Exists(partnerID, flag string) (bool, error)
	ByPartnerID(partnerID string) ([]model.PartnerFlag, error)
	ByFlag(flag string) ([]model.PartnerFlag, error)
	Delete(partnerID, flag string) (bool, error)
}

type flagRepository struct {
	db *sqlx.DB
}

func NewFlagRepository(db *sqlx.DB) FlagRepository {
	return &flagRepository{db: db}
}

func (r *flagRepository) Create(flag *model.PartnerFlag) (bool, error) {
	if flag.ID == "" {
		flag.ID = uuid.New().String()
	}
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = time.Now()
	}
	if flag.Metadata == "" {
		flag.Metadata = "{}"
	}

	// ON CONFLICT DO NOTHING works on both SQLite and PostgreSQL.
	query := `
		INSERT INTO partner_flags (id, partner_id, flag, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (partner_id, flag) DO NOTHING
	`
	result, err := r.db.Exec(query,
		flag.ID,
		flag.PartnerID,
		flag.Flag,
		flag.Metadata,
		flag.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *flagRepository) Exists(partnerID, flag string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM partner_flags WHERE partner_id = $1 AND flag = $2`

	err := r.db.Get(&count, query, partnerID, flag)
	return count > 0, err
}

func (r *flagRepository) ByPartnerID(partnerID string) ([]model.PartnerFlag, error) {
	flags := []model.PartnerFlag{}
	query := `SELECT * FROM partner_flags WHERE partner_id = $1 ORDER BY created_at`

	err := r.db.Select(&flags, query, partnerID)
	return flags, err
}

func (r *flagRepository) ByFlag(flag string) ([]model.PartnerFlag, error) {
	flags := []model.PartnerFlag{}
	query := `SELECT * FROM partner_flags WHERE flag = $1 ORDER BY created_at`

	err := r.db.Select(&flags, query, flag)
	return flags, err
}

func (r *flagRepository) Delete(partnerID, flag string) (bool, error) {
	query := `DELETE FROM partner_flags WHERE partner_id = $1 AND flag = $2`

	result, err := r.db.Exec(query, partnerID, flag)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
