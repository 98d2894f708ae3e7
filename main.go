// radiohackbox sniffs, replays and injects keystrokes into unencrypted or
// weakly encrypted 2.4 GHz wireless keyboards using an nRF24LU1+ dongle
// running the research firmware.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "radiohackbox",
		Short:         "Radio hack box for wireless keyboards",
		Long:          "radiohackbox records and replays keyboard radio traffic, captures\nthe key material of a keyboard and injects keystrokes with it.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("radiohackbox {{.Version}}\n")

	cmd.AddCommand(
		newRunCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "radiohackbox %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
