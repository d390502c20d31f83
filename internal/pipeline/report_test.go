package pipeline

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
)

func TestWriteResultAlignsColumns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteResult(&buf, etl.QueryResult{
		Query:   "SELECT * FROM Largest_banks",
		Columns: []string{"name", "mc_usd_billion"},
		Rows: [][]any{
			{"JPMorgan Chase", 432.92},
			{"Bank of America", 231.52},
		},
	})
	require.NoError(t, err)
	want := "SELECT * FROM Largest_banks\n" +
		"name             mc_usd_billion\n" +
		"JPMorgan Chase   432.92\n" +
		"Bank of America  231.52\n\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NULL", FormatValue(nil))
	assert.Equal(t, "840.3", FormatValue(840.3))
	assert.Equal(t, "160020", FormatValue(160020.0))
	assert.Equal(t, "7", FormatValue(int64(7)))
	assert.Equal(t, "abc", FormatValue([]byte("abc")))
	assert.Equal(t, "2024-01-02T03:04:05Z", FormatValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}
