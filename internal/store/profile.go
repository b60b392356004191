// ABOUTME: SQLite implementation of ProfileStore over a key-value preferences table
// ABOUTME: Missing keys read back as the "Sin información" placeholder

package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// profileKeys lists the preference keys in display order.
var profileKeys = []string{PrefName, PrefEmail, PrefPhone, PrefBio}

// GetProfile loads the profile. Keys that were never saved come back as NoInformation.
func (s *SQLiteStore) GetProfile(ctx context.Context) (*Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("querying preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string, len(profileKeys))
	var latest time.Time
	for rows.Next() {
		var key, value, updatedAt string
		if err := rows.Scan(&key, &value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning preference: %w", err)
		}
		values[key] = value
		if t, err := parseTime(updatedAt); err == nil && t.After(latest) {
			latest = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating preferences: %w", err)
	}

	p := profileFromValues(values)
	p.UpdatedAt = latest
	return p, nil
}

// SaveProfile writes all four preference keys in one transaction.
// An empty bio is stored as NoInformation.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p *Profile) error {
	p.UpdatedAt = s.now()
	values := profileValues(p)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range profileKeys {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO preferences (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, values[key], formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("saving preference %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing profile: %w", err)
	}
	s.logger.Debug("saved profile")
	return nil
}

// profileValues maps a profile onto its preference keys.
func profileValues(p *Profile) map[string]string {
	bio := strings.TrimSpace(p.Bio)
	if bio == "" {
		bio = NoInformation
	}
	return map[string]string{
		PrefName:  p.Name,
		PrefEmail: p.Email,
		PrefPhone: p.Phone,
		PrefBio:   bio,
	}
}

func profileFromValues(values map[string]string) *Profile {
	get := func(key string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		return NoInformation
	}
	return &Profile{
		Name:  get(PrefName),
		Email: get(PrefEmail),
		Phone: get(PrefPhone),
		Bio:   get(PrefBio),
	}
}
