package store

import (
	"context"
	"fmt"
)

// EnsureUser inserts email with passwordHash unless the user already exists.
// It reports whether a row was inserted.
func (s *Store) EnsureUser(ctx context.Context, email, passwordHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES (?, ?)
		ON CONFLICT (email) DO NOTHING
	`, email, passwordHash)
	if err != nil {
		return false, fmt.Errorf("insert user %s: %w", email, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read inserted user rows: %w", err)
	}
	return affected > 0, nil
}

// PasswordHash returns the stored bcrypt hash of email.
func (s *Store) PasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	if err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = ?`, email).Scan(&hash); err != nil {
		return "", notFound(err, "user %s", email)
	}
	return hash, nil
}
