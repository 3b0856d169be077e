// Package repairmeta embeds cargo repair state inside a free-text notes field.
//
// A notes value is human text plus, optionally, one machine line that starts
// with Marker and carries a single-line JSON object. The object holds the
// latest repair state (technician, operations, spare parts, costs, status)
// and an append-only history of repair events.
//
// # Entry Points
//
// Decode: split notes into clean text and the embedded Meta (nil when absent
// or unparseable).
// Upsert: merge a Patch onto the existing (or default) Meta and re-encode.
// AppendHistory: append one HistoryEntry, optionally merging a Patch.
//
// Every operation is total over its input: malformed payloads degrade to a
// nil Meta instead of returning an error. The package performs no I/O;
// callers read and write the notes column themselves.
package repairmeta
