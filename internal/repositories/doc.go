// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [UserRepository] : User persistence with email-based lookups
//   - [AccountRepository] : Connected platform accounts and their OAuth tokens
//   - [PlaylistRepository] : Locally-built playlists with their ordered songs
//   - [ExportRepository] : Export history with per-platform outcomes
//   - [ResolutionRepository] : Cache of fuzzy-search track resolutions
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42, playlist #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
