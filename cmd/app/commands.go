package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/shelf/internal"
	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/export"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/search"
	"github.com/starford/shelf/internal/storage"
)

// openCore builds the store and aggregator with logs on stderr, leaving
// stdout for command output.
func openCore(cmd *cli.Command) (*internal.Core, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.NewCore(internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search a catalog once and optionally import a result",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Catalog to search: books, shows or podcasts",
				Value: string(models.CategoryBooks),
			},
			&cli.IntFlag{
				Name:  "add",
				Usage: "Import the Nth result (1-based)",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Status of the imported item: todo, progress or finished",
				Value: string(models.StatusTodo),
			},
		},
		Action: runSearch,
	}
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	kind := models.Category(cmd.String("kind"))
	status := models.Status(cmd.String("status"))
	if !status.Valid() {
		return fmt.Errorf("%w: --status %q", apperr.ErrInvalidInput, status)
	}

	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	resp, err := core.Search.Do(ctx, search.Request{Query: query, Kind: kind})
	if err != nil {
		return err
	}
	if resp.Degraded {
		fmt.Fprintln(os.Stderr, search.FailureNotice)
	}
	printResults(os.Stdout, resp.Results)

	n := int(cmd.Int("add"))
	if n == 0 {
		return nil
	}
	r, err := pickResult(resp.Results, n)
	if err != nil {
		return err
	}
	in := search.ImportItem(r, status)
	if err := in.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	item := core.Store.AddItem(in.Normalized())
	fmt.Fprintf(os.Stdout, "Added %q to %s (%s)\n", item.Title, item.Category, item.ID)
	return nil
}

// printResults lists results numbered from 1, the numbering --add expects.
func printResults(w io.Writer, results []models.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	for i, r := range results {
		line := fmt.Sprintf("%2d. %s", i+1, r.Title)
		if r.Year != "" {
			line += " (" + r.Year + ")"
		}
		if r.Author != "" {
			line += " by " + r.Author
		}
		fmt.Fprintln(w, line)
	}
}

func pickResult(results []models.SearchResult, n int) (models.SearchResult, error) {
	if n < 1 || n > len(results) {
		return models.SearchResult{}, fmt.Errorf("%w: --add %d: %w", apperr.ErrInvalidInput, n, errOutOfRange(len(results)))
	}
	return results[n-1], nil
}

func errOutOfRange(count int) error {
	if count == 0 {
		return errors.New("there are no results to import")
	}
	return fmt.Errorf("pick a result between 1 and %d", count)
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the collection as Markdown notes with YAML frontmatter",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output directory",
				Required: true,
			},
		},
		Action: runExport,
	}
}

func runExport(_ context.Context, cmd *cli.Command) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	fs, err := storage.NewFS(cmd.String("out"))
	if err != nil {
		return err
	}
	res, err := export.Markdown(fs, core.Store.Items())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Exported %d items to %s\n", res.Written, fs.Root())
	return nil
}
