package presence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/corkboard/go/internal/documents"
	"github.com/mcdev12/corkboard/go/internal/sqlutil"
)

// ErrInvalidUserID is returned when a user id is not a UUID
var ErrInvalidUserID = errors.New("user id must be a UUID")

// User is a participant of a document and whether they are connected
type User struct {
	ID     string `json:"id"`
	Online bool   `json:"online"`
}

// Repository tracks per-document online flags
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new presence repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SetOnline marks a user online for a document, creating the document row if needed
func (r *Repository) SetOnline(ctx context.Context, userID, documentName string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if err := documents.EnsureExists(ctx, tx, documentName); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, document_name, online, updated_at)
			VALUES ($1, $2, TRUE, NOW())
			ON CONFLICT (id, document_name)
			DO UPDATE SET online = TRUE, updated_at = NOW()`,
			id, documentName,
		)
		if err != nil {
			return fmt.Errorf("failed to set user online: %w", err)
		}
		return nil
	})
}

// SetOffline marks a user offline for a document. Unknown users are ignored.
func (r *Repository) SetOffline(ctx context.Context, userID, documentName string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET online = FALSE, updated_at = NOW()
		WHERE id = $1 AND document_name = $2`,
		id, documentName,
	)
	if err != nil {
		return fmt.Errorf("failed to set user offline: %w", err)
	}
	return nil
}

// ListUsers returns every user that has joined the document
func (r *Repository) ListUsers(ctx context.Context, documentName string) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, online FROM users WHERE document_name = $1 ORDER BY id`,
		documentName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Online); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func parseUserID(userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return id.String(), nil
}
