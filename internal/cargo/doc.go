// Package cargo persists cargo records in SQLite.
//
// A record is one device received for service: a unique tracking number, the
// customer and device labels, a lifecycle status, and a free-form notes
// column. The notes column is owned by people and by the repair codec; the
// store treats it as opaque text and never parses it.
//
// Schema changes bump schemaVersion in schema.go; an older database is
// rejected with ErrSchemaMismatch rather than migrated in place.
package cargo
