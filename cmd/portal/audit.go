package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"grundbuch-online/portal/pkg/audit"
	"grundbuch-online/portal/pkg/audit/export"
	"grundbuch-online/portal/pkg/audit/retention"
	auditstorage "grundbuch-online/portal/pkg/audit/storage"
	"grundbuch-online/portal/pkg/cli"
	"grundbuch-online/portal/pkg/config"
)

// auditPageSize is how many records one storage query fetches.
const auditPageSize = 500

var auditFlags struct {
	since       time.Duration
	from        string
	to          string
	action      string
	environment string
	outcome     string
	limit       int
	output      string
	file        string

	days       int
	maxRecords int64
	dryRun     bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query and prune the gateway audit trail",
	Long: `Query and prune the audit records written for every gateway call.

Subcommands:
  query  - List or export records with filters
  prune  - Delete records beyond the retention policy`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	Long: `Query audit records, newest first.

Examples:
  # Last 24 hours
  portal audit query --since 24h

  # Failed production document queries in a time range
  portal audit query --env production --action query-current-or-historical \
    --outcome failed --from 2024-05-01T00:00:00Z --to 2024-05-02T00:00:00Z

  # Export everything to CSV
  portal audit query --limit 0 --output csv --file audit.csv`,
	Args: cobra.NoArgs,
	RunE: runAuditQuery,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records beyond the retention policy",
	Long: `Delete records older than the retention period, then the oldest records
beyond the record cap. Flags override audit.retention from the config.

Examples:
  portal audit prune
  portal audit prune --days 7 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runAuditPrune,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditPruneCmd)

	f := auditQueryCmd.Flags()
	f.DurationVar(&auditFlags.since, "since", 0, "only records newer than this (e.g. 24h)")
	f.StringVar(&auditFlags.from, "from", "", "start of the time range (RFC3339)")
	f.StringVar(&auditFlags.to, "to", "", "end of the time range (RFC3339)")
	f.StringVar(&auditFlags.action, "action", "", "filter by gateway action")
	f.StringVarP(&auditFlags.environment, "env", "e", "", "filter by UVST environment")
	f.StringVar(&auditFlags.outcome, "outcome", "", "filter by outcome (ok or failed)")
	f.IntVar(&auditFlags.limit, "limit", 100, "maximum number of records (0 for all)")
	f.StringVarP(&auditFlags.output, "output", "o", "text", "output format (text, json, csv)")
	f.StringVarP(&auditFlags.file, "file", "f", "", "write to file instead of stdout")
	auditQueryCmd.MarkFlagsMutuallyExclusive("since", "from")

	p := auditPruneCmd.Flags()
	p.IntVar(&auditFlags.days, "days", -1, "retention in days (default from config)")
	p.Int64Var(&auditFlags.maxRecords, "max-records", -1, "record cap (default from config)")
	p.BoolVar(&auditFlags.dryRun, "dry-run", false, "only report how many records are older than the retention period")
}

// withAudit opens the audit storage for the duration of fn.
func withAudit(fn func(ctx context.Context, cfg *config.Config, storage audit.Storage) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Telemetry.Logging, os.Stderr, true); err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	storage, err := auditstorage.New(cfg.Audit)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer storage.Close()

	return fn(ctx, cfg, storage)
}

// buildAuditQuery turns the query flags into an audit.Query.
func buildAuditQuery(now time.Time) (*audit.Query, error) {
	q := &audit.Query{
		Action:      auditFlags.action,
		Environment: auditFlags.environment,
		SortOrder:   "desc",
	}

	if auditFlags.since > 0 {
		start := now.Add(-auditFlags.since)
		q.StartTime = &start
	}
	if auditFlags.from != "" {
		t, err := time.Parse(time.RFC3339, auditFlags.from)
		if err != nil {
			return nil, cli.NewConfigError("from", fmt.Sprintf("invalid time %q: %v", auditFlags.from, err))
		}
		q.StartTime = &t
	}
	if auditFlags.to != "" {
		t, err := time.Parse(time.RFC3339, auditFlags.to)
		if err != nil {
			return nil, cli.NewConfigError("to", fmt.Sprintf("invalid time %q: %v", auditFlags.to, err))
		}
		q.EndTime = &t
	}

	switch auditFlags.outcome {
	case "":
	case "ok":
		ok := true
		q.Success = &ok
	case "failed":
		failed := false
		q.Success = &failed
	default:
		return nil, cli.NewConfigError("outcome", fmt.Sprintf("unknown outcome %q (want ok or failed)", auditFlags.outcome))
	}

	if auditFlags.limit < 0 {
		return nil, cli.NewConfigError("limit", "must not be negative")
	}
	if err := q.Validate(); err != nil {
		return nil, cli.NewConfigError("query", err.Error())
	}
	return q, nil
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.output)
	if err != nil {
		return err
	}
	query, err := buildAuditQuery(time.Now())
	if err != nil {
		return err
	}

	return withAudit(func(ctx context.Context, cfg *config.Config, storage audit.Storage) error {
		var progress cli.ProgressReporter
		if auditFlags.file != "" {
			progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "records")
		}

		records, err := fetchRecords(ctx, storage, query, auditFlags.limit, progress)
		if err != nil {
			return cli.NewCommandError("audit query", err)
		}

		var out io.Writer = cmd.OutOrStdout()
		if auditFlags.file != "" {
			f, err := os.Create(auditFlags.file)
			if err != nil {
				return cli.NewCommandError("audit query", err)
			}
			defer f.Close()
			out = f
		}

		if format == cli.FormatText {
			if err := cli.NewFormatter(format).FormatTo(out, recordTable(records)); err != nil {
				return err
			}
		} else {
			exporter, _ := export.ForFormat(string(format))
			if err := exporter.Export(ctx, records, out); err != nil {
				return cli.NewCommandError("audit query", err)
			}
		}

		if auditFlags.file != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ %d records written to %s\n", len(records), auditFlags.file)
		}
		return nil
	})
}

// fetchRecords pages through storage until limit records (0 for all) have
// been read.
func fetchRecords(ctx context.Context, storage audit.Storage, query *audit.Query, limit int, progress cli.ProgressReporter) ([]*audit.Record, error) {
	total, err := storage.Count(ctx, query)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(limit) < total {
		total = int64(limit)
	}
	if progress != nil {
		progress.Start(total)
	}

	records := make([]*audit.Record, 0, total)
	page := *query
	for int64(len(records)) < total {
		page.Offset = len(records)
		page.Limit = min(auditPageSize, int(total)-len(records))

		batch, err := storage.Query(ctx, &page)
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		records = append(records, batch...)
		if progress != nil {
			progress.Update(int64(len(records)))
		}
	}

	if progress != nil {
		progress.Finish()
	}
	return records, nil
}

func runAuditPrune(cmd *cobra.Command, args []string) error {
	return withAudit(func(ctx context.Context, cfg *config.Config, storage audit.Storage) error {
		policy := cfg.Audit.Retention
		if auditFlags.days >= 0 {
			policy.Days = auditFlags.days
		}
		if auditFlags.maxRecords >= 0 {
			policy.MaxRecords = auditFlags.maxRecords
		}
		if policy.Days == 0 && policy.MaxRecords == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Retention is unlimited, nothing to prune")
			return nil
		}

		if auditFlags.dryRun {
			if policy.Days == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No age limit configured")
				return nil
			}
			cutoff := time.Now().AddDate(0, 0, -policy.Days)
			n, err := storage.Count(ctx, &audit.Query{EndTime: &cutoff})
			if err != nil {
				return cli.NewCommandError("audit prune", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records older than %s would be deleted\n", n, cutoff.Format(time.RFC3339))
			return nil
		}

		deleted, err := retention.NewPruner(storage, policy, nil).Prune(ctx)
		if err != nil {
			return cli.NewCommandError("audit prune", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d records\n", deleted)
		return nil
	})
}

type recordTable []*audit.Record

func (recordTable) Header() []string {
	return []string{"time", "action", "environment", "status", "outcome", "duration_ms", "request_id"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.RequestTime.Format(time.RFC3339),
			r.Action,
			r.Environment,
			strconv.Itoa(r.Status),
			r.Outcome,
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			r.RequestID,
		})
	}
	return rows
}
