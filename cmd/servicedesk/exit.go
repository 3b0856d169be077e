package main

import (
	"servicedesk/internal/services"
)

// Exit codes by error kind. Unclassified failures exit 1.
const (
	exitFailure       = 1
	exitValidation    = 2
	exitNotFound      = 3
	exitConflict      = 4
	exitConfiguration = 5
)

func exitCode(err error) int {
	switch services.Kind(err) {
	case "":
		return 0
	case services.KindValidation:
		return exitValidation
	case services.KindNotFound:
		return exitNotFound
	case services.KindConflict:
		return exitConflict
	case services.KindConfiguration:
		return exitConfiguration
	default:
		return exitFailure
	}
}

func exitHint(err error) string {
	switch services.Kind(err) {
	case services.KindValidation:
		return "check the command arguments (see --help)"
	case services.KindNotFound:
		return "list cargo records with `servicedesk cargo list`"
	case services.KindConflict:
		return "inspect the record with `servicedesk cargo show <id>` and retry"
	case services.KindConfiguration:
		return "run `servicedesk doctor` and review the configuration file"
	default:
		return ""
	}
}
