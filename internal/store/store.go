// ABOUTME: Store interfaces and data types for personal-crm persistence
// ABOUTME: Defines Client, Profile, ActivityEntry and the errors stores return

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a write would give two clients the same email
var ErrDuplicateEmail = errors.New("email already exists")

// DuplicateError reports which unique field a rejected write collided on.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Field + ": " + e.Value
}

// Unwrap maps the conflict to its sentinel so errors.Is works.
func (e *DuplicateError) Unwrap() error {
	if e.Field == "email" {
		return ErrDuplicateEmail
	}
	return nil
}

// Client is a stored contact. ID is zero until the store assigns one.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoInformation is shown for profile fields that were never saved.
const NoInformation = "Sin información"

// Preference keys the profile is stored under.
const (
	PrefName  = "USER_NAME"
	PrefEmail = "USER_EMAIL"
	PrefPhone = "USER_PHONE"
	PrefBio   = "USER_BIO"
)

// Profile is the owner's personal card.
type Profile struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Bio       string    `json:"bio"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty reports whether nothing has been saved yet.
func (p *Profile) IsEmpty() bool {
	return p.Name == NoInformation && p.Email == NoInformation && p.Phone == NoInformation
}

// ClientStore persists clients.
type ClientStore interface {
	// InsertClient stores c and returns its new id. A taken email fails with
	// *DuplicateError and leaves the store untouched.
	InsertClient(ctx context.Context, c *Client) (int64, error)
	GetClient(ctx context.Context, id int64) (*Client, error)
	// ListClients returns every client ordered by name.
	ListClients(ctx context.Context) ([]Client, error)
	// SearchClients matches query as a case-sensitive substring of name or email.
	SearchClients(ctx context.Context, query string) ([]Client, error)
	// UpdateClient returns the number of rows changed; 0 means no such id.
	UpdateClient(ctx context.Context, c *Client) (int64, error)
	DeleteClient(ctx context.Context, id int64) (int64, error)
	CountClients(ctx context.Context) (int, error)
}

// ProfileStore persists the personal profile as key-value preferences.
type ProfileStore interface {
	GetProfile(ctx context.Context) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error
}

// ActivityStore records mutations for the activity feed.
type ActivityStore interface {
	AppendActivity(ctx context.Context, e *ActivityEntry) error
	ListActivity(ctx context.Context, f ActivityFilter) ([]ActivityEntry, error)
}

// Store is everything the service layer needs.
type Store interface {
	ClientStore
	ProfileStore
	ActivityStore

	// Ping checks that the backing database is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
