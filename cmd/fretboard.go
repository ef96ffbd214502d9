package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-fretboard/widgets"
)

var (
	boardOnly boardFlags
	boardBar  int
	legend    bool
)

func init() {
	rootCmd.AddCommand(fretboardCmd)
	boardOnly.register(fretboardCmd.Flags())
	fretboardCmd.Flags().IntVar(&boardBar, "bar", 1, "bar to draw, for bar-scoped overlays")
	fretboardCmd.Flags().BoolVar(&legend, "legend", false, "print the color legend")
}

var fretboardCmd = &cobra.Command{
	Use:   "fretboard",
	Short: "Draw a fretboard with scale and chord overlays",
	Example: `  go-fretboard fretboard --tuning guitar7 --scale "E:phrygian-dominant" --chord E7b9 --start 0 --end 7
  go-fretboard fretboard --scale "A:minor-pentatonic@1-4" --scale "C:major@5-8" --bar 6`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		th := loadTheme()
		in, err := boardOnly.input(th)
		if err != nil {
			return err
		}
		in.Position.Bar = max(boardBar-1, 0)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderBoard(th, in))
		if legend {
			fmt.Fprintln(out)
			if in.Options.IntervalColors {
				fmt.Fprintln(out, widgets.RenderIntervalLegend())
			} else {
				fmt.Fprintln(out, widgets.RenderLayerLegend(th))
			}
		}
		return nil
	},
}
