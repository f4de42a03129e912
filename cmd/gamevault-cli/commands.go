package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JustMelih/GameVault/internal/search"
)

func (c *cli) newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for games matching a description",
		Example: `  gamevault-cli search "open world rpg with dragons, no magic"
  gamevault-cli search "a game where we play as a police officer" --limit 5 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			stop := c.ui.StartSpinner("Searching...")
			resp, err := a.Service.Search(ctx, search.Request{Query: query, Limit: limit, ClientKey: "cli"})
			stop()
			if err != nil {
				return err
			}

			if c.outputJSON {
				return c.ui.JSON(resp)
			}

			if len(resp.Items) == 0 {
				c.ui.Warning("No games found for %q", query)
			}
			for i, it := range resp.Items {
				c.ui.Game(i+1, it.Title, it.Why)
			}
			c.ui.Success("%d results in %s", len(resp.Items), FormatDuration(time.Duration(resp.TookMs)*time.Millisecond))

			if c.verbose {
				c.printDebug(resp.Debug)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default from config)")
	return cmd
}

func (c *cli) printDebug(d search.Debug) {
	c.ui.Section("debug")
	c.ui.KeyValue("catalog query", d.RawgQuery)
	c.ui.KeyValue("include", strings.Join(d.Include, ", "))
	c.ui.KeyValue("exclude", strings.Join(d.Exclude, ", "))
	c.ui.KeyValue("titles", strings.Join(d.Titles, ", "))
	c.ui.KeyValue("keyword fallback", d.LLMFallback)
	if d.LLMError != nil {
		c.ui.KeyValue("extractor error", *d.LLMError)
	}
	if d.RawgError != nil {
		c.ui.KeyValue("catalog error", *d.RawgError)
	}
}

func (c *cli) newIntentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intent <query>",
		Short: "Show how a query is interpreted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			res := a.Resolver.Resolve(ctx, query)

			var errMsg *string
			if res.Err != nil {
				msg := res.Err.Error()
				errMsg = &msg
			}

			if c.outputJSON {
				return c.ui.JSON(map[string]interface{}{
					"query":   query,
					"source":  res.Source,
					"include": res.Intent.Include,
					"exclude": res.Intent.Exclude,
					"titles":  res.Intent.Titles,
					"error":   errMsg,
				})
			}

			c.ui.Section("intent")
			c.ui.KeyValue("source", res.Source)
			c.ui.KeyValue("include", strings.Join(res.Intent.Include, ", "))
			c.ui.KeyValue("exclude", strings.Join(res.Intent.Exclude, ", "))
			c.ui.KeyValue("titles", strings.Join(res.Intent.Titles, ", "))
			if errMsg != nil {
				c.ui.Warning("Extractor failed: %s", *errMsg)
			}
			return nil
		},
	}
}

// batchResult is one line of a batch run.
type batchResult struct {
	Query    string           `json:"query"`
	Response *search.Response `json:"response,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func (c *cli) newBatchCmd() *cobra.Command {
	var (
		limit       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Run one query per line and summarize the results",
		Long: `Batch reads queries from a file, one per line. Blank lines and lines
starting with # are skipped. Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, err := readQueries(cmd, args[0])
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return errors.New("no queries found")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			results := make([]batchResult, len(queries))
			progress := c.ui.NewProgress("Queries", len(queries))

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(1, concurrency))
			for i, q := range queries {
				g.Go(func() error {
					defer progress.Increment()
					results[i].Query = q
					resp, err := a.Service.Search(gctx, search.Request{Query: q, Limit: limit, ClientKey: "cli-batch"})
					if err != nil {
						results[i].Error = err.Error()
						// Only cancellation stops the batch.
						if gctx.Err() != nil {
							return err
						}
						return nil
					}
					results[i].Response = resp
					return nil
				})
			}
			waitErr := g.Wait()
			progress.Wait()

			if c.outputJSON {
				if err := c.ui.JSON(results); err != nil {
					return err
				}
				return waitErr
			}

			c.printBatchSummary(results)
			return waitErr
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results per query")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "queries to run in parallel")
	return cmd
}

func (c *cli) printBatchSummary(results []batchResult) {
	var (
		failed, fallback, empty int
		totalMs                 int64
	)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		top := ""
		switch {
		case r.Error != "":
			failed++
			top = "error: " + r.Error
		case len(r.Response.Items) == 0:
			empty++
		default:
			top = r.Response.Items[0].Title
		}
		if r.Response != nil {
			totalMs += r.Response.TookMs
			if r.Response.Debug.LLMFallback {
				fallback++
			}
		}
		rows = append(rows, []string{truncate(r.Query, 40), top})
	}

	c.ui.Table([]string{"QUERY", "TOP RESULT"}, rows)

	c.ui.Section("summary")
	ok := len(results) - failed
	c.ui.KeyValue("queries", len(results))
	c.ui.KeyValue("succeeded", ok)
	c.ui.KeyValue("failed", failed)
	c.ui.KeyValue("no results", empty)
	c.ui.KeyValue("keyword fallback", fallback)
	if ok > 0 {
		c.ui.KeyValue("avg latency", FormatDuration(time.Duration(totalMs/int64(ok))*time.Millisecond))
	}
}

func readQueries(cmd *cobra.Command, path string) ([]string, error) {
	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open queries: %w", err)
		}
		defer f.Close()
		in = f
	}

	var queries []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return queries, nil
}

func (c *cli) newHistoryCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent searches from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.cfg.Audit.Enabled {
				return errors.New("audit log is disabled; set AUDIT_DATABASE_URL or audit.enabled")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.Audit.Recent(ctx, n)
			if err != nil {
				return err
			}

			if c.outputJSON {
				return c.ui.JSON(records)
			}
			if len(records) == 0 {
				c.ui.Info("No searches recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				top := ""
				if len(r.Items) > 0 {
					top = r.Items[0]
				}
				rows = append(rows, []string{
					r.CreatedAt.Local().Format(time.DateTime),
					truncate(r.Query, 40),
					strconv.Itoa(len(r.Items)),
					strconv.FormatBool(r.LLMFallback),
					strconv.FormatInt(r.TookMs, 10) + "ms",
					top,
				})
			}
			c.ui.Table([]string{"WHEN", "QUERY", "ITEMS", "FALLBACK", "TOOK", "TOP RESULT"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of searches to show")
	return cmd
}

func (c *cli) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage memoized intents in the shared cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge [query]",
		Short: "Drop the cached intent for a query, or every cached intent",
		Long: `Purge removes memoized intents so the next search asks the extractor again.
With a query only that entry is removed. Throttle counters are never touched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if c.cfg.Cache.Driver == "memory" {
				c.ui.Warning("Cache driver is memory; cached intents do not outlive a single run")
			}

			var (
				scope = "all"
				purge = a.Resolver.Purge
			)
			if len(args) == 1 {
				scope = args[0]
				purge = func(ctx context.Context) error { return a.Resolver.Forget(ctx, scope) }
			}
			if err := purge(ctx); err != nil {
				return err
			}

			if c.outputJSON {
				return c.ui.JSON(map[string]string{"purged": scope, "driver": c.cfg.Cache.Driver})
			}
			if scope == "all" {
				c.ui.Success("Purged every cached intent")
			} else {
				c.ui.Success("Purged cached intent for %q", scope)
			}
			return nil
		},
	})

	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
