package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-fretboard/midi"
)

var devicesTimeout time.Duration

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.Flags().DurationVar(&devicesTimeout, "timeout", 3*time.Second, "give up scanning after this long")
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List MIDI ports usable with --synth and --input",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ins, outs, err := midi.Ports(devicesTimeout)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "inputs:")
		for _, p := range ins {
			fmt.Fprintf(out, "  %s\n", p)
		}
		fmt.Fprintln(out, "outputs:")
		for _, p := range outs {
			fmt.Fprintf(out, "  %s\n", p)
		}
		return nil
	},
}
