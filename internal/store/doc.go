// Package store provides persistent storage for personal-crm using SQLite.
//
// # Architecture
//
// The store package is split into small interfaces that the service layer
// composes:
//
//   - ClientStore: insert, read, search, update, delete and count clients
//   - ProfileStore: the owner's profile, kept as key-value preferences
//   - ActivityStore: an append-only feed of client and profile changes
//
// Store embeds all three plus Ping and Close. SQLiteStore and MemoryStore
// both implement Store and behave the same way, including error values.
//
// # Data Models
//
//   - Client: id, name, email, phone. Email is unique across clients.
//   - Profile: name, email, phone, bio. Unsaved fields read as NoInformation.
//   - ActivityEntry: action, target and optional JSON detail.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Database file locations:
//
//   - Default: ~/.local/share/crm/crm.db
//   - Testing: :memory: (in-memory database, one connection)
//
// # Error Handling
//
//   - ErrNotFound: requested client does not exist
//   - ErrDuplicateEmail: wrapped by *DuplicateError when an email is taken
//
// Update and delete of an unknown id are not errors; they report zero
// affected rows.
//
// # Migrations
//
// Schema creation is idempotent and runs on open. Columns added after the
// first release are applied by runMigrations, which checks
// pragma_table_info before each ALTER TABLE.
package store
