// Package repair drives the repair lifecycle of a cargo record.
//
// Every mutating call follows the same cycle: take the cross-process repair
// lock, read the record, decode its notes with repairmeta, apply the change,
// re-encode, and write notes and cargo status back in one update. The codec
// itself never touches storage; this package is its only writer.
//
// Calls are tagged with a fresh correlation ID, logged with cargo_id and
// operation fields, and counted in the metrics registry by outcome.
package repair
