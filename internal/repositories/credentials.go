package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/curator/internal/models"
)

var _ models.CredentialBackend = (*CredentialRepository)(nil)

// CredentialRepository implements [models.CredentialBackend] on the SQLite credentials table.
//
// Each token is one row keyed by [models.TokenKind.Key]; an absent token has no row.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Load reads the stored triple. Missing rows yield empty fields.
func (r *CredentialRepository) Load() (models.Credentials, error) {
	rows, err := r.db.Query(`SELECT key, value FROM credentials`)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(models.TokenKinds))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Credentials{}, fmt.Errorf("failed to scan credential: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Credentials{}, fmt.Errorf("row iteration error: %w", err)
	}

	return models.Credentials{
		PrimaryAccess:  values[models.PrimaryAccess.Key()],
		PrimaryRefresh: values[models.PrimaryRefresh.Key()],
		ProviderAccess: values[models.ProviderAccess.Key()],
	}, nil
}

// Save replaces the stored triple in one transaction. Empty fields delete their row.
func (r *CredentialRepository) Save(creds models.Credentials) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, kind := range models.TokenKinds {
		value := creds.Get(kind)
		if value == "" {
			if _, err := tx.Exec(`DELETE FROM credentials WHERE key = ?`, kind.Key()); err != nil {
				return fmt.Errorf("failed to delete %s: %w", kind, err)
			}
			continue
		}

		query := `
			INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`
		if _, err := tx.Exec(query, kind.Key(), value, now); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	return nil
}

// Clear removes every stored token.
func (r *CredentialRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
