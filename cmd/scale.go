package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"go-fretboard/overlay"
	"go-fretboard/theme"
	"go-fretboard/theory"
	"go-fretboard/widgets"
)

var (
	scaleBoard      boardFlags
	scaleConvention string
	scaleList       bool
)

func init() {
	rootCmd.AddCommand(scaleCmd)
	scaleBoard.register(scaleCmd.Flags())
	scaleCmd.Flags().StringVar(&scaleConvention, "convention", "", "spelling: sharp, flat, mixed-minor, double-sharp or double-flat")
	scaleCmd.Flags().BoolVar(&scaleList, "list", false, "list every known scale type")
}

var scaleCmd = &cobra.Command{
	Use:   "scale <root> <type>",
	Short: "Spell a scale, its chords and where it sits on the neck",
	Example: `  go-fretboard scale A dorian
  go-fretboard scale Bb melodic-minor --labels intervals --start 5 --end 10`,
	Args: func(cmd *cobra.Command, args []string) error {
		if scaleList {
			return nil
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if scaleList {
			printCatalog(out)
			return nil
		}

		def, ok := theory.Lookup(theory.ScaleType(args[1]))
		if !ok {
			return fmt.Errorf("unknown scale type %q (try --list)", args[1])
		}
		if !theory.IsValidNote(args[0]) {
			return fmt.Errorf("unknown root %q", args[0])
		}
		root := theory.NormalizeName(args[0])

		scale := theory.ResolveScaleType(root, def.Type)
		if scaleConvention != "" {
			conv := theory.ResolveConvention(root, def.Type, theory.ParseConvention(scaleConvention))
			scale = theory.ResolveScale(root, def.Steps, def.Type, conv, def.Category)
		}
		if scale.Empty() {
			return fmt.Errorf("%s %s is not available", root, def.Name)
		}

		th := loadTheme()
		printScale(out, th, scale, def)

		scaleBoard.scales = []string{root + ":" + string(def.Type)}
		in, err := scaleBoard.input(th)
		if err != nil {
			return err
		}
		in.Options.KeyPreference = scale.Convention
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderBoard(th, in))
		return nil
	},
}

func printCatalog(out io.Writer) {
	t := table.New().Border(lipgloss.NormalBorder()).Headers("type", "name", "category", "mode", "steps")
	for _, d := range theory.Catalog() {
		mode := ""
		if d.Mode > 0 {
			mode = fmt.Sprint(d.Mode)
		}
		t.Row(string(d.Type), d.Name, string(d.Category), mode, fmt.Sprint(d.Steps))
	}
	fmt.Fprintln(out, t.Render())
}

func printScale(out io.Writer, th *theme.Theme, scale theory.Scale, def theory.ScaleDef) {
	title := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	fmt.Fprintln(out, title.Render(fmt.Sprintf("%s %s", scale.Root, def.Name)), "("+scale.Convention.String()+")")

	t := table.New().Border(lipgloss.HiddenBorder())
	t.Row(append([]string{"notes"}, scale.Notes...)...)
	t.Row(append([]string{"intervals"}, scale.Intervals...)...)
	fmt.Fprintln(out, t.Render())

	if theory.ShouldDisplayChords(def.Type, len(scale.Notes), def.Category) {
		set := theory.BuildChords(scale, def.Type, def.Category)
		ct := table.New().Border(lipgloss.NormalBorder())
		for _, fam := range []struct {
			name   string
			chords []theory.Chord
		}{
			{"triads", set.Triads},
			{"sevenths", set.Sevenths},
			{"sixths", set.Sixths},
			{"sus2", set.Sus2},
			{"sus4", set.Sus4},
			{"7sus4", set.SevenSus4},
			{"ninths", set.Ninths},
			{"elevenths", set.Elevenths},
			{"thirteenths", set.Thirteenths},
		} {
			if len(fam.chords) == 0 {
				continue
			}
			symbols := []string{fam.name}
			romans := []string{""}
			for _, c := range fam.chords {
				symbols = append(symbols, c.Symbol)
				romans = append(romans, c.Roman)
			}
			ct.Row(symbols...)
			ct.Row(romans...)
		}
		fmt.Fprintln(out, ct.Render())
	}

	for _, g := range theory.CharacteristicChords(scale, def.Type) {
		fmt.Fprintf(out, "%s: %s\n", g.Title, strings.Join(g.Chords, " "))
	}
	if def.Mode > 0 {
		var names []string
		for _, m := range theory.ModesOf(def.Category) {
			names = append(names, fmt.Sprintf("%d %s", m.Mode, m.Name))
		}
		fmt.Fprintf(out, "modes: %s\n", strings.Join(names, ", "))
	}
}

func renderBoard(th *theme.Theme, in overlay.Input) string {
	board := widgets.Board{
		Theme:      th,
		Tuning:     in.Tuning,
		Window:     in.Window,
		Convention: in.Options.KeyPreference,
	}
	return board.Render(overlay.Compose(in))
}
