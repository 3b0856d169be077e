// Package preflight provides readiness checks for the directories, database,
// and photo storage servicedesk depends on.
//
// The "servicedesk doctor" command runs RunAll and prints one line per check.
// Checks never modify state beyond what opening the database already does.
package preflight
