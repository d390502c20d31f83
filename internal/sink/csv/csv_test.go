package csvsink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
)

func sampleSet() etl.ConvertedSet {
	return etl.ConvertedSet{
		Schema: etl.Schema{
			NameField:  "Name",
			ValueField: "MC_USD_Billion",
			Derived:    []string{"MC_GBP_Billion", "MC_EUR_Billion", "MC_INR_Billion"},
		},
		Records: []etl.ConvertedRecord{
			{Name: "Bank A", Value: 100.5, Derived: []float64{80.4, 90.45, 8040}},
			{Name: "Bank, B", Value: 2000.25, Derived: []float64{1600.2, 1800.22, 160020}},
		},
	}
}

func TestEncodeLayout(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleSet()))

	want := ",Name,MC_USD_Billion,MC_GBP_Billion,MC_EUR_Billion,MC_INR_Billion\n" +
		"0,Bank A,100.5,80.4,90.45,8040.0\n" +
		"1,\"Bank, B\",2000.25,1600.2,1800.22,160020.0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "Largest_banks_data.csv")
	in := sampleSet()
	require.NoError(t, Write(in, path))

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, in.Schema, out.Schema)
	require.Equal(t, in.Len(), out.Len())
	for i := range in.Records {
		assert.Equal(t, in.Records[i].Name, out.Records[i].Name)
		want, got := in.Records[i].Numbers(), out.Records[i].Numbers()
		require.Len(t, got, len(want))
		for j := range want {
			assert.InDelta(t, want[j], got[j], 1e-9)
		}
	}
}

func TestWriteOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "banks.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than nothing\n"), 0o600))

	empty := etl.ConvertedSet{Schema: sampleSet().Schema}
	require.NoError(t, Write(empty, path))

	// #nosec G304 -- test reads from the controlled temp directory.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",Name,MC_USD_Billion,MC_GBP_Billion,MC_EUR_Billion,MC_INR_Billion\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should not be left behind")
}

func TestWriteRejectsRaggedRecord(t *testing.T) {
	t.Parallel()

	set := sampleSet()
	set.Records[1].Derived = set.Records[1].Derived[:1]
	path := filepath.Join(t.TempDir(), "banks.csv")

	err := Write(set, path)
	require.ErrorIs(t, err, etl.ErrIO)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteRequiresPath(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Write(sampleSet(), " "), etl.ErrIO)
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, etl.ErrIO)
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "8040.0", FormatFloat(8040))
	assert.Equal(t, "0.0", FormatFloat(0))
	assert.Equal(t, "346.34", FormatFloat(346.34))
	assert.Equal(t, "1800.22", FormatFloat(1800.22))
}
