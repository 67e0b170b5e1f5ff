package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborscm/csvsift/internal/config"
)

func newReaderFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addReaderFlags(cmd)
	return cmd
}

func swapConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

func TestReaderOptionsFlagsWinOverConfig(t *testing.T) {
	swapConfig(t, &config.Config{Reader: map[string]string{
		"delimiter":        ";",
		"skip_empty_lines": "true",
	}})

	cmd := newReaderFlagsCmd()
	require.NoError(t, cmd.Flags().Set("delimiter", "|"))
	require.NoError(t, cmd.Flags().Set("strict", "true"))

	opts, err := readerOptions(cmd)
	require.NoError(t, err)

	assert.Equal(t, "|", opts.Delimiter)
	assert.True(t, opts.SkipEmptyLines)
	assert.True(t, opts.StrictDecode)
}

func TestReaderOptionsEnclosureDisabled(t *testing.T) {
	swapConfig(t, nil)

	cmd := newReaderFlagsCmd()
	require.NoError(t, cmd.Flags().Set("enclosure", ""))

	opts, err := readerOptions(cmd)
	require.NoError(t, err)

	require.NotNil(t, opts.Enclosure)
	assert.Equal(t, "", *opts.Enclosure)
}

func TestReaderOptionsUntouchedEnclosureStaysNil(t *testing.T) {
	swapConfig(t, nil)

	opts, err := readerOptions(newReaderFlagsCmd())
	require.NoError(t, err)

	assert.Nil(t, opts.Enclosure)
}

func TestReaderOptionsSetPairs(t *testing.T) {
	swapConfig(t, nil)

	cmd := newReaderFlagsCmd()
	require.NoError(t, cmd.Flags().Set("set", "file_encoding=UTF-16LE"))
	require.NoError(t, cmd.Flags().Set("set", "read_chunk_size=8192"))

	opts, err := readerOptions(cmd)
	require.NoError(t, err)

	assert.Equal(t, "UTF-16LE", opts.FileEncoding)
	assert.Equal(t, 8192, opts.ChunkSize)
}

func TestReaderOptionsBadSetPair(t *testing.T) {
	swapConfig(t, nil)

	cmd := newReaderFlagsCmd()
	require.NoError(t, cmd.Flags().Set("set", "delimiter"))

	_, err := readerOptions(cmd)
	assert.ErrorContains(t, err, "name=value")
}

func TestReaderOptionsAliasesAndFields(t *testing.T) {
	swapConfig(t, nil)

	cmd := newReaderFlagsCmd()
	require.NoError(t, cmd.Flags().Set("alias", "SKU Number=sku"))
	require.NoError(t, cmd.Flags().Set("alias", "Qty On Hand=qty"))
	require.NoError(t, cmd.Flags().Set("fields", "sku,qty"))

	opts, err := readerOptions(cmd)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"SKU Number": "sku", "Qty On Hand": "qty"}, opts.FieldAliases)
	assert.Equal(t, []string{"sku", "qty"}, opts.IncludeFields)
}

func TestTableFromFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SHIPPING_CONTAINER_inserts_20260211_170255.csv", "SHIPPING_CONTAINER"},
		{"STOCK.csv", "STOCK"},
		{"stock.csv.gz", "stock"},
		{"ITEM_MASTER_Inserts_20260101.tsv", "ITEM_MASTER"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tableFromFilename(tt.in), "tableFromFilename(%q)", tt.in)
	}
}
