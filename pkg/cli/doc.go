/*
Package cli provides helpers shared by the cacheproxy commands.

Output Formatting:

Commands that print a result accept --output text|json:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
NotifyReload delivers SIGHUP so a running server can reread its
configuration:

	ctx := cli.SetupSignalHandler(context.Background())
	for range cli.NotifyReload(ctx) {
	    reload()
	}

Exit Codes:

ExitCode maps an error returned by a command to the process status: 0 on
success, 2 for configuration problems and 1 for everything else.
*/
package cli
