// Package models defines domain entities and persistence interfaces for the mixport export service.
//
// The package contains two categories of types:
//
// 1. Value types passed through the export pipeline:
//   - [Playlist] : A locally-built playlist with its ordered songs
//   - [Song] : Song metadata (title, display artists, optional Spotify id)
//   - [Account] : A connected streaming account's OAuth credential tuple
//   - [ExportResult] : The outcome of reproducing a playlist on a platform
//
// 2. Persistent entities: database-backed models with full lifecycle management
//   - [User] : Local user owning connected accounts and playlists
//
// Persistent entities implement the Model interface providing ID generation, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
