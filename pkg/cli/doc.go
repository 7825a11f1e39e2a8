/*
Package cli provides the helpers shared by the portal command: output
formatters, a progress reporter, typed command errors and signal handling.

Output Formatting:

Results are rendered as text, JSON or CSV. Values implementing Table are
rendered as aligned columns in text mode and as rows in CSV mode:

	formatter := cli.NewFormatter(cli.FormatCSV)
	if err := formatter.FormatTo(os.Stdout, orderTable); err != nil {
		return err
	}

Progress Reporting:

Long exports report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "rows")
	progress.Start(total)
	progress.Update(written)
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
