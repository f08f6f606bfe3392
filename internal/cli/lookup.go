package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/marka/internal/catalog"
	"github.com/ppiankov/marka/internal/model"
)

var (
	snapshotPath string
	byPrefix     bool
	searchLimit  int
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <code>",
	Short: "Look up nomenclature codes in the catalog snapshot",
	Long: `Lookup prints catalog entries as JSON lines, one per entry.

By default the code must match exactly; separators are ignored, so
"0101 21 000 0" and "0101210000" are the same code. With --prefix every
entry whose code starts with the argument is printed, ordered by code.

Example:
  marka lookup 8471300000
  marka lookup "8471 30 000 0"
  marka lookup 6403 --prefix`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <text...>",
	Short: "Search catalog descriptions",
	Long: `Search prints entries whose description contains every word of the
query, ignoring case, as JSON lines ordered by code.

Example:
  marka search обувь кожа
  marka search "переносные компьютеры" --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(searchCmd)

	lookupCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "catalog snapshot path (default: output.snapshot)")
	lookupCmd.Flags().BoolVar(&byPrefix, "prefix", false, "match all codes starting with the argument")

	searchCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "catalog snapshot path (default: output.snapshot)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum entries to print (0 for all)")
}

func loadIndex() (*catalog.Index, error) {
	path := snapshotPath
	if path == "" {
		path = currentConfig().Output.Snapshot
	}
	idx, err := catalog.LoadSnapshotFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'marka build' first)", err)
	}
	return idx, nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	idx, err := loadIndex()
	if err != nil {
		return err
	}

	var entries []model.CatalogEntry
	if byPrefix {
		entries = idx.LookupByPrefix(args[0])
	} else if entry, ok := idx.LookupExact(args[0]); ok {
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return fmt.Errorf("no catalog entry for %q", args[0])
	}
	return writeEntries(cmd, entries)
}

func runSearch(cmd *cobra.Command, args []string) error {
	idx, err := loadIndex()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	entries := idx.Search(query)
	if len(entries) == 0 {
		return fmt.Errorf("no catalog entry matches %q", query)
	}
	if searchLimit > 0 && len(entries) > searchLimit {
		logger.Sugar().Debugf("showing %d of %d matches", searchLimit, len(entries))
		entries = entries[:searchLimit]
	}
	return writeEntries(cmd, entries)
}

// writeEntries prints one compact JSON object per line
func writeEntries(cmd *cobra.Command, entries []model.CatalogEntry) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
