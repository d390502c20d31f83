package progress

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
)

type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func TestFormat(t *testing.T) {
	t.Parallel()

	at := time.Date(2023, time.September, 8, 9, 16, 35, 0, time.UTC)
	assert.Equal(t, "2023-Sep-08-09:16:35 : Process Complete\n", Format(at, MsgComplete))
}

func TestFileLoggerAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "code_log.txt")
	clk := &stepClock{now: time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC), step: time.Second}
	l, err := NewFileLogger(path, clk, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())

	require.NoError(t, l.Log(MsgStart))
	require.NoError(t, l.Log(MsgExtracted))

	// A second logger on the same file keeps earlier lines.
	l2, err := NewFileLogger(path, clk, nil)
	require.NoError(t, err)
	require.NoError(t, l2.Log(FailedMessage(errors.New("boom"))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Equal(t, []string{
		"2024-Jan-02-03:04:05 : Preliminaries complete. Initiating ETL process",
		"2024-Jan-02-03:04:06 : Data extraction complete. Initiating Transformation process",
		"2024-Jan-02-03:04:07 : Process failed: boom",
	}, lines)
}

func TestFileLoggerWriteFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// The target path is a directory, so opening it for writing fails.
	l, err := NewFileLogger(dir, &stepClock{now: time.Now()}, nil)
	require.NoError(t, err)
	require.ErrorIs(t, l.Log(MsgStart), etl.ErrIO)
}

func TestNewFileLoggerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewFileLogger("", &stepClock{}, nil)
	require.ErrorIs(t, err, etl.ErrIO)

	_, err = NewFileLogger("x.log", nil, nil)
	require.Error(t, err)
}
