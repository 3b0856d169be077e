package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"servicedesk/internal/cargo"
	"servicedesk/internal/repairmeta"
	"servicedesk/internal/textutil"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiGray   = "\x1b[90m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	return paint(line, statusKindColor(kind), colorize)
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// cargoStatusLabel title-cases a cargo status for tables.
func cargoStatusLabel(status cargo.Status, colorize bool) string {
	label := textutil.DisplayStatus(string(status))
	switch status {
	case cargo.StatusReceived:
		return paint(label, ansiBlue, colorize)
	case cargo.StatusInRepair:
		return paint(label, ansiYellow, colorize)
	case cargo.StatusRepaired, cargo.StatusDelivered:
		return paint(label, ansiGreen, colorize)
	case cargo.StatusCancelled:
		return paint(label, ansiGray, colorize)
	default:
		return label
	}
}

func repairStatusLabel(meta *repairmeta.Meta, colorize bool) string {
	if meta == nil {
		return "-"
	}
	label := textutil.DisplayStatus(string(meta.Status))
	switch meta.Status {
	case repairmeta.StatusCompleted:
		return paint(label, ansiGreen, colorize)
	case repairmeta.StatusInProgress:
		return paint(label, ansiYellow, colorize)
	default:
		return paint(label, ansiBlue, colorize)
	}
}

func paint(value, color string, colorize bool) string {
	if !colorize || color == "" {
		return value
	}
	return color + value + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	return []string{paint(line, ansiBlue, colorize), paint(rule, ansiBlue, colorize)}
}
