package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
)

// TimestampLayout renders timestamps as YYYY-Mon-DD-HH:MM:SS.
const TimestampLayout = "2006-Jan-02-15:04:05"

// Milestone messages written during a run, in order.
const (
	MsgStart        = "Preliminaries complete. Initiating ETL process"
	MsgExtracted    = "Data extraction complete. Initiating Transformation process"
	MsgTransformed  = "Data transformation complete. Initiating Loading process"
	MsgCSVSaved     = "Data saved to CSV file"
	MsgStoreOpened  = "SQL Connection initiated"
	MsgStoreLoaded  = "Data loaded to Database as a table, Executing queries"
	MsgComplete     = "Process Complete"
	MsgStoreClosed  = "Server Connection closed"
	failedMsgPrefix = "Process failed: "
)

// FailedMessage formats the line appended when a run aborts.
func FailedMessage(err error) string {
	return failedMsgPrefix + err.Error()
}

// FileLogger appends timestamped lines to a file. The file is opened in
// append mode for every entry so earlier runs are never truncated.
type FileLogger struct {
	path   string
	clock  etl.Clock
	logger *zap.Logger
}

// NewFileLogger builds a logger writing to path. A nil logger disables the
// structured echo of each entry.
func NewFileLogger(path string, clock etl.Clock, logger *zap.Logger) (*FileLogger, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: progress log path is required", etl.ErrIO)
	}
	if clock == nil {
		return nil, fmt.Errorf("progress clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileLogger{path: path, clock: clock, logger: logger.Named("progress")}, nil
}

// Path returns the log file location.
func (l *FileLogger) Path() string {
	return l.path
}

// Log appends "<timestamp> : <message>\n".
func (l *FileLogger) Log(message string) error {
	now := l.clock.Now()
	line := Format(now, message)

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create progress log dir: %v", etl.ErrIO, err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open progress log: %v", etl.ErrIO, err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write progress log: %v", etl.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close progress log: %v", etl.ErrIO, err)
	}
	l.logger.Debug("progress", zap.String("message", message), zap.Time("at", now))
	return nil
}

// Format renders one log line.
func Format(at time.Time, message string) string {
	return at.Format(TimestampLayout) + " : " + message + "\n"
}
