package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorForItemStatus(status queue.Status) string {
	switch status {
	case queue.StatusCompleted:
		return ansiGreen
	case queue.StatusFailed:
		return ansiRed
	case queue.StatusProcessing:
		return ansiYellow
	case queue.StatusPending:
		return ansiBlue
	default:
		return ""
	}
}

func colorForPlantStatus(status plants.ImageStatus) string {
	switch status {
	case plants.ImageCompleted:
		return ansiGreen
	case plants.ImageFailed:
		return ansiRed
	case plants.ImageGenerating:
		return ansiYellow
	case plants.ImageQueued, plants.ImagePending:
		return ansiBlue
	default:
		return ""
	}
}

func colorize(value, color string, enabled bool) string {
	if !enabled || color == "" {
		return value
	}
	return color + value + ansiReset
}

func renderSectionHeader(title string, enabled bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	return colorize(line, ansiBlue, enabled)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTimestamp(*t)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
