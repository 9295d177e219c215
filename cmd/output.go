package cmd

import "io"

// outWriter and errWriter respect writers set on the root command, which is
// how tests capture output. They fall back to stdout and stderr.
func outWriter() io.Writer {
	return rootCmd.OutOrStdout()
}

func errWriter() io.Writer {
	return rootCmd.ErrOrStderr()
}
