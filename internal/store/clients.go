// ABOUTME: SQLite implementation of ClientStore
// ABOUTME: Insert, read, search, update, delete and count for the clients table

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const clientColumns = `id, name, email, phone, created_at, updated_at`

// InsertClient creates a new client and assigns its ID.
// A taken email returns *DuplicateError and nothing is written.
func (s *SQLiteStore) InsertClient(ctx context.Context, c *Client) (int64, error) {
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (name, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.Name, c.Email, c.Phone, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		if isConstraintViolation(err) {
			return 0, &DuplicateError{Field: "email", Value: c.Email}
		}
		return 0, fmt.Errorf("inserting client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading client id: %w", err)
	}
	c.ID = id

	s.logger.Debug("created client", "id", id)
	return id, nil
}

// GetClient retrieves a client by ID.
// Returns ErrNotFound if the client doesn't exist.
func (s *SQLiteStore) GetClient(ctx context.Context, id int64) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients returns all clients sorted by name.
func (s *SQLiteStore) ListClients(ctx context.Context) ([]Client, error) {
	return s.queryClients(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name ASC, id ASC`)
}

// SearchClients returns clients whose name or email contains query.
// instr() is used instead of LIKE because LIKE ignores ASCII case.
func (s *SQLiteStore) SearchClients(ctx context.Context, query string) ([]Client, error) {
	if query == "" {
		return s.ListClients(ctx)
	}
	return s.queryClients(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE instr(name, ?) > 0 OR instr(email, ?) > 0
		ORDER BY name ASC, id ASC
	`, query, query)
}

// UpdateClient overwrites name, email and phone of the client with c.ID.
// Returns 0 when no such client exists.
func (s *SQLiteStore) UpdateClient(ctx context.Context, c *Client) (int64, error) {
	c.UpdatedAt = s.now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE clients SET name = ?, email = ?, phone = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Email, c.Phone, formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, &DuplicateError{Field: "email", Value: c.Email}
		}
		return 0, fmt.Errorf("updating client: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	if n > 0 {
		s.logger.Debug("updated client", "id", c.ID)
	}
	return n, nil
}

// DeleteClient removes a client. Returns 0 when no such client exists.
func (s *SQLiteStore) DeleteClient(ctx context.Context, id int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting client: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	if n > 0 {
		s.logger.Debug("deleted client", "id", id)
	}
	return n, nil
}

// CountClients returns the total number of clients.
func (s *SQLiteStore) CountClients(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting clients: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) queryClients(ctx context.Context, query string, args ...any) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	clients := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}
	return clients, nil
}

// scanClient scans a row into a Client.
func scanClient(scanner interface{ Scan(dest ...any) error }) (Client, error) {
	var c Client
	var createdAt, updatedAt string
	if err := scanner.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scanning client: %w", err)
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return c, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return c, fmt.Errorf("parsing updated_at: %w", err)
	}
	return c, nil
}
