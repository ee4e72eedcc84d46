// Package export is the top-level entry point for playlist exports.
//
// [Service] validates platform support and account connection before
// delegating to the platform strategy, and wraps strategy failures in a
// single error the caller can branch on. [Service.BulkExport] fans one
// playlist out to several platforms at once with a worker pool and progress
// reporting.
package export
