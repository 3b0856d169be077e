// Package services defines the error taxonomy shared by the cargo store, the
// repair workflow, and the CLI.
//
// Failures are tagged with one of the exported markers through Wrap and later
// classified with Kind so callers can map them to exit messages and metrics
// labels without string matching.
package services
