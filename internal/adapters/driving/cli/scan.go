package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pwnpy/sharesentry/internal/adapters/driven/catalog"
	storage "github.com/pwnpy/sharesentry/internal/adapters/driven/storage/file"
	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
)

var (
	scanQueries    string
	scanKeywords   string
	scanKeyword    []string
	scanOperator   string
	scanExtensions []string
	scanModified   string
	scanOutput     string
	scanAppend     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Search sites for sensitive content",
	Long: `Runs content searches from the root site and writes matching file paths
to the search results file.

Without flags the predefined query catalog is run (paths.queries, markdown
or YAML). --keywords runs one OR query built from a keyword file and
--keyword runs a custom query joined with --op. Keyword scans are limited
to --ext extensions and the --modified window.

Modified window: "this year", "YYYY-MM-DD,YYYY-MM-DD", a raw
LastModifiedTime expression, or "" for no limit.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	flags := scanCmd.Flags()
	flags.StringVar(&scanQueries, "queries", "", "query catalog file (default paths.queries)")
	flags.StringVar(&scanKeywords, "keywords", "", "keyword file, one keyword per line")
	flags.StringSliceVarP(&scanKeyword, "keyword", "k", nil, "custom keyword (repeatable)")
	flags.StringVar(&scanOperator, "op", "OR", "operator joining custom keywords (AND or OR)")
	flags.StringSliceVar(&scanExtensions, "ext", nil, "file extensions for keyword scans (default search.extensions)")
	flags.StringVar(&scanModified, "modified", "", "last-modified window for keyword scans (default search.modified)")
	flags.StringVar(&scanOutput, "output", "", "results file (default <output-dir>/"+domain.SearchFile+")")
	flags.BoolVar(&scanAppend, "append", false, "append to the results file instead of replacing it")
	scanCmd.MarkFlagsMutuallyExclusive("queries", "keywords", "keyword")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) (err error) {
	e, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, e) }()

	output := scanOutput
	if output == "" {
		output = e.settings.Paths.Output(domain.SearchFile)
	}

	var report *driving.ScanReport
	switch {
	case scanKeywords != "" || len(scanKeyword) > 0:
		query, qerr := keywordScanQuery(cmd, e.settings)
		if qerr != nil {
			return qerr
		}
		if err := resetOutput(output); err != nil {
			return err
		}
		cmd.Println(title("Searching: " + query.String()))
		report, err = e.scanner.ScanQuery(cmd.Context(), query, output)
	default:
		path := scanQueries
		if path == "" {
			path = e.settings.Paths.Queries
		}
		queries, qerr := catalog.LoadQueries(path)
		if qerr != nil {
			return qerr
		}
		if err := resetOutput(output); err != nil {
			return err
		}
		cmd.Println(title(fmt.Sprintf("Running %d queries from %s", len(queries), path)))
		report, err = e.scanner.ScanCatalog(cmd.Context(), queries, output)
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printScanReport(cmd, report, output)
	return nil
}

func resetOutput(path string) error {
	if scanAppend {
		return nil
	}
	return storage.Truncate(path)
}

// keywordScanQuery builds the query for --keywords or --keyword.
func keywordScanQuery(cmd *cobra.Command, settings *domain.Settings) (domain.Query, error) {
	var (
		keywords []string
		op       = domain.OperatorOr
	)
	if scanKeywords != "" {
		lines, err := storage.ReadLines(scanKeywords)
		if err != nil {
			return domain.Query{}, err
		}
		keywords = lines
	} else {
		parsed, err := domain.ParseKeywordOperator(scanOperator)
		if err != nil {
			return domain.Query{}, err
		}
		keywords, op = scanKeyword, parsed
	}

	text := domain.KeywordQuery(keywords, op)
	if text == "" {
		return domain.Query{}, fmt.Errorf("%w: no keywords given", domain.ErrInvalidInput)
	}

	extensions := settings.Search.Extensions
	if cmd.Flags().Changed("ext") {
		extensions = scanExtensions
	}
	modifiedExpr := settings.Search.Modified
	if cmd.Flags().Changed("modified") {
		modifiedExpr = scanModified
	}
	modified, err := domain.ParseModifiedFilter(modifiedExpr)
	if err != nil {
		return domain.Query{}, err
	}
	return domain.NewQuery(text, extensions, modified), nil
}

func printScanReport(cmd *cobra.Command, report *driving.ScanReport, output string) {
	titles := make([]string, 0, len(report.Failures))
	for t := range report.Failures {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	for _, t := range titles {
		name := t
		if name == "" {
			name = "query"
		}
		msg := fmt.Sprintf("%s stopped early: %v", name, report.Failures[t])
		if errors.Is(report.Failures[t], domain.ErrPermissionDenied) {
			msg = name + ": access denied"
		}
		cmd.Println(warning(msg))
	}
	cmd.Println(success(fmt.Sprintf("Found %d files across %d queries", report.Files, report.Queries)))
	cmd.Println(muted("Written to " + output))
}
