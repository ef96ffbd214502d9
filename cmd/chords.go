package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"go-fretboard/theory"
)

var chordBoard boardFlags

func init() {
	rootCmd.AddCommand(chordsCmd)
	chordBoard.register(chordsCmd.Flags())
}

var chordsCmd = &cobra.Command{
	Use:     "chords <symbol>...",
	Short:   "Spell chord symbols and show their tones on the neck",
	Example: `  go-fretboard chords Am7 D7 Gmaj7 --labels intervals`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		th := loadTheme()

		t := table.New().Border(lipgloss.NormalBorder()).Headers("chord", "notes", "intervals")
		for _, a := range args {
			sym, ok := theory.ParseChordSymbol(a)
			if !ok {
				return fmt.Errorf("%q is not a chord symbol", a)
			}
			notes, intervals := spellChord(sym)
			t.Row(sym.Text, fmt.Sprint(notes), fmt.Sprint(intervals))
		}
		fmt.Fprintln(out, t.Render())

		for _, a := range args {
			chordBoard.chords = []string{a}
			in, err := chordBoard.input(th)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderBoard(th, in))
		}
		return nil
	},
}

// spellChord names each tone in the chord root's conventional spelling
func spellChord(sym theory.ChordSymbol) ([]string, []string) {
	conv := theory.DefaultConvention(sym.Root, theory.ScaleMajor)
	rootPC := theory.NoteToPitchClass(sym.Root)
	seen := map[theory.PitchClass]bool{}
	var notes, intervals []string
	for _, pc := range sym.PitchClasses() {
		if seen[pc] {
			continue
		}
		seen[pc] = true
		name := theory.PitchClassToName(pc, conv)
		if pc == rootPC {
			name = sym.Root
		}
		notes = append(notes, name)
		intervals = append(intervals, theory.IntervalLabel(int(pc)-int(rootPC)))
	}
	return notes, intervals
}
