// Package textutil normalizes human-entered labels and sanitizes strings for
// use in file names and object keys.
//
// Labels (technician names, operation descriptions, spare part names) are
// converted to Unicode NFC with inner whitespace collapsed so equal text
// typed on different keyboards compares equal once stored.
package textutil
