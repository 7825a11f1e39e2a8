package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"grundbuch-online/portal/pkg/address"
	"grundbuch-online/portal/pkg/cli"
	"grundbuch-online/portal/pkg/client"
	"grundbuch-online/portal/pkg/uvst"
)

var harnessFlags struct {
	gateway     string
	environment string
	output      string
	copy        bool

	kg         string
	ez         string
	format     string
	historical bool
	signed     bool
	linked     bool
	asOf       string

	street      string
	houseNumber string
	postalCode  string
	city        string

	deedNumber string
	deedYear   string
}

var harnessCmd = &cobra.Command{
	Use:   "harness",
	Short: "Run the query workflow against a portal server",
	Long: `Run authenticate, address normalization, document query and an optional
deed query against a running portal server, then print the request log.

Examples:
  # Current extract in the test environment
  portal harness --kg 01004 --ez 123

  # Historical extract as of a date, with address lookup
  portal harness --kg 01004 --ez 123 --historical --as-of 2020-01-31 \
    --street "hauptstrasse" --house-number 5/2 --city Wien

  # Also fetch a deed and copy the newest log entry to the clipboard
  portal harness --kg 01004 --ez 123 --deed-number 1234 --deed-year 2019 --copy`,
	RunE: runHarness,
}

func init() {
	rootCmd.AddCommand(harnessCmd)

	f := harnessCmd.Flags()
	f.StringVar(&harnessFlags.gateway, "gateway", "", "portal base URL (overrides client.gateway_url)")
	f.StringVarP(&harnessFlags.environment, "env", "e", "", "UVST environment (test or production)")
	f.StringVarP(&harnessFlags.output, "output", "o", "text", "log output format (text, json, csv)")
	f.BoolVar(&harnessFlags.copy, "copy", false, "copy the newest log entry to the clipboard")

	f.StringVar(&harnessFlags.kg, "kg", "", "cadastral community number (5 digits)")
	f.StringVar(&harnessFlags.ez, "ez", "", "entry number")
	f.StringVar(&harnessFlags.format, "format", "PDF", "document format (XML, PDF, HTML)")
	f.BoolVar(&harnessFlags.historical, "historical", false, "query the historical extract")
	f.BoolVar(&harnessFlags.signed, "signed", false, "request a signed document")
	f.BoolVar(&harnessFlags.linked, "linked", false, "request linked entries")
	f.StringVar(&harnessFlags.asOf, "as-of", "", "as-of date (YYYY-MM-DD)")

	f.StringVar(&harnessFlags.street, "street", "", "street to normalize before querying")
	f.StringVar(&harnessFlags.houseNumber, "house-number", "", "house number, e.g. 12/3/4")
	f.StringVar(&harnessFlags.postalCode, "postal-code", "", "postal code")
	f.StringVar(&harnessFlags.city, "city", "", "city")

	f.StringVar(&harnessFlags.deedNumber, "deed-number", "", "deed document number")
	f.StringVar(&harnessFlags.deedYear, "deed-year", "", "deed year")

	_ = harnessCmd.MarkFlagRequired("kg")
	_ = harnessCmd.MarkFlagRequired("ez")
}

func runHarness(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(harnessFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Telemetry.Logging, os.Stderr, true); err != nil {
		return err
	}

	clientCfg := cfg.Client
	if harnessFlags.gateway != "" {
		clientCfg.GatewayURL = harnessFlags.gateway
	}
	if harnessFlags.environment != "" {
		clientCfg.Environment = harnessFlags.environment
	}
	session := client.NewSession(clientCfg, client.WithClientInfo(uvst.ClientInfo{
		OperatingSystem: cfg.UVST.Client.OperatingSystem,
		SoftwareName:    cfg.UVST.Client.SoftwareName,
		SoftwareVersion: cfg.UVST.Client.SoftwareVersion,
	}))

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	plan := harnessPlan()
	report, runErr := client.NewWorkflow(session).Run(ctx, plan)

	out := cmd.OutOrStdout()
	if format == cli.FormatText {
		printReport(out, session, report)
	}
	if err := cli.NewFormatter(format).FormatTo(out, logTable(session.Log().Entries())); err != nil {
		return err
	}

	if harnessFlags.copy {
		if err := copyNewest(session.Log()); err != nil {
			return cli.NewCommandError("harness", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "✓ Newest log entry copied to clipboard")
	}

	if runErr != nil {
		return cli.NewCommandError("harness", runErr)
	}
	return nil
}

func harnessPlan() client.Plan {
	p := client.Plan{
		Document: uvst.DocumentQuery{
			KG:         harnessFlags.kg,
			EZ:         harnessFlags.ez,
			Format:     harnessFlags.format,
			Historical: harnessFlags.historical,
			Signed:     harnessFlags.signed,
			Linked:     harnessFlags.linked,
			AsOf:       harnessFlags.asOf,
		},
	}
	if harnessFlags.street != "" || harnessFlags.city != "" {
		p.Address = &address.Input{
			Street:      harnessFlags.street,
			HouseNumber: harnessFlags.houseNumber,
			PostalCode:  harnessFlags.postalCode,
			City:        harnessFlags.city,
		}
	}
	if harnessFlags.deedNumber != "" {
		p.Deed = &uvst.DeedQuery{
			KG:             harnessFlags.kg,
			EZ:             harnessFlags.ez,
			DocumentNumber: harnessFlags.deedNumber,
			Year:           harnessFlags.deedYear,
			Format:         harnessFlags.format,
		}
	}
	return p
}

func printReport(w io.Writer, s *client.Session, r *client.Report) {
	if r == nil {
		return
	}
	now := time.Now()
	tok := s.Token()
	fmt.Fprintf(w, "Environment: %s\n", s.Environment())
	fmt.Fprintf(w, "Token: %s (%s remaining)\n", tok.State(now), tok.Remaining(now).Round(time.Second))
	if r.Resolution != nil {
		a := r.Resolution.Address
		fmt.Fprintf(w, "Address: %s %s, %s %s [%s, %s search]\n",
			a.Street, a.HouseNumber, a.PostalCode, a.City, r.Resolution.Source, r.Resolution.Mode)
	}
	if r.Document != nil {
		fmt.Fprintf(w, "Document: %d bytes (%s)\n", len(r.Document.Content), r.Document.ContentType)
	}
	if r.Deed != nil {
		fmt.Fprintf(w, "Deed: %d bytes (%s)\n", len(r.Deed.Content), r.Deed.ContentType)
	}
	fmt.Fprintln(w)
}

func copyNewest(log *client.LogBuffer) error {
	entry, ok := log.Newest()
	if !ok {
		return fmt.Errorf("request log is empty")
	}
	data, err := entry.CanonicalJSON()
	if err != nil {
		return err
	}
	return clipboard.WriteAll(string(data))
}

// logTable renders request log entries, newest first.
type logTable []client.LogEntry

func (logTable) Header() []string {
	return []string{"time", "method", "endpoint", "status", "duration_ms"}
}

func (t logTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		rows = append(rows, []string{
			e.Timestamp.Format(time.RFC3339),
			e.Method,
			e.Endpoint,
			strconv.Itoa(e.ResponseStatus),
			strconv.FormatInt(e.Duration.Milliseconds(), 10),
		})
	}
	return rows
}
