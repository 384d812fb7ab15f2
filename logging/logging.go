// Package logging builds the dual-sink console+file logger shared by the
// server and client binaries, mirroring the console/file sink pair the
// reference implementation wires through spdlog.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger that writes every record at DEBUG level and
// above to logFile, and level (or above) to stderr, matching the
// console=configurable/file=always-debug split of the reference
// implementation. level selects the console gate: "DEBUG" or "INFO"; the
// file sink always receives debug and above regardless of level.
func New(logFile, level string) (*logrus.Logger, error) {
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", logFile, err)
	}

	var consoleLevel logrus.Level
	switch level {
	case "DEBUG":
		consoleLevel = logrus.DebugLevel
	case "INFO", "":
		consoleLevel = logrus.InfoLevel
	default:
		return nil, fmt.Errorf("logging: unrecognized log_level %q", level)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(io.Discard)
	// The logger's own level always stays at Debug so that every entry
	// reaches the hook; the hook enforces the configured level on the
	// console sink only, while the file sink always gets everything.
	logger.SetLevel(logrus.DebugLevel)

	logger.AddHook(&consoleFileHook{file: f, consoleLevel: consoleLevel})
	return logger, nil
}

// consoleFileHook fans every accepted record out to the file unconditionally
// and to stderr only when its level is at least as severe as consoleLevel.
type consoleFileHook struct {
	file         *os.File
	consoleLevel logrus.Level
}

func (h *consoleFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *consoleFileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	if _, err := h.file.Write(line); err != nil {
		return err
	}
	if entry.Level <= h.consoleFileLevel() {
		fmt.Fprint(os.Stderr, string(line))
	}
	return nil
}

func (h *consoleFileHook) consoleFileLevel() logrus.Level {
	return h.consoleLevel
}

// MaskIMSI redacts all but the first two and last two digits of an IMSI for
// console-level display, following the reference trace logger's identity
// masking convention.
func MaskIMSI(imsi string) string {
	if len(imsi) <= 4 {
		return "***"
	}
	return imsi[:2] + "***" + imsi[len(imsi)-2:]
}
