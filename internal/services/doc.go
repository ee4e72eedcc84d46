// Package services implements the per-platform export strategies behind the
// [Exporter] interface.
//
// # Exporter Interface
//
// Spotify, YouTube, and SoundCloud each implement [Exporter], so the export
// pipeline can reproduce a local playlist on any connected platform through
// one contract: ensure the account is usable, create the remote playlist,
// resolve and add every track, and report aggregated counts.
//
// # Shared HTTP Client
//
// The three platform APIs differ only in base URL, auth header scheme, and
// error body shape. A single parametrized client handles auth header
// injection, error normalization into [shared.APIError], and the
// 401-refresh-retry-once policy for all of them.
//
// # Partial Success
//
// Track-level failures (unresolvable search, missing metadata, an add that
// exhausts its retry budget) increment the failed count and the export
// continues. Only missing connections and playlist creation failures abort
// the whole export.
package services
