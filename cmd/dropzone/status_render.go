package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"dropzone/internal/daemonctl"
	"dropzone/internal/preflight"
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
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
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

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func daemonStatusLines(snap *daemonctl.Snapshot, colorize bool) []string {
	status := snap.Status
	lines := make([]string, 0, 4)
	if status.Running {
		detail := fmt.Sprintf("Running (pid %d)", status.PID)
		if status.StartedAt != "" {
			detail += ", since " + status.StartedAt
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "Not running", colorize))
	}

	lines = append(lines, renderStatusLine("Store", statusInfo, fmt.Sprintf("%s (%s)", status.StorePath, status.StoreBackend), colorize))
	if snap.OfflineErr != nil {
		lines = append(lines, renderStatusLine("History", statusError, snap.OfflineErr.Error(), colorize))
	} else {
		lines = append(lines, renderStatusLine("History", statusInfo, fmt.Sprintf("%d entries", status.HistoryCount), colorize))
	}

	switch {
	case status.TargetBounds != nil:
		lines = append(lines, renderStatusLine("Drop target", statusOK, fmt.Sprintf("%s %s", status.TargetElement, status.TargetBounds), colorize))
	case status.Running:
		lines = append(lines, renderStatusLine("Drop target", statusWarn, status.TargetElement+" (no bounds reported)", colorize))
	default:
		lines = append(lines, renderStatusLine("Drop target", statusInfo, status.TargetElement, colorize))
	}

	if status.MetricsBind != "" {
		lines = append(lines, renderStatusLine("Metrics", statusInfo, "http://"+status.MetricsBind+"/metrics", colorize))
	}
	return lines
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}
