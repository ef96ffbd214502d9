package cmd

import (
	"github.com/spf13/cobra"

	"go-fretboard/config"
	"go-fretboard/debug"
	"go-fretboard/theme"
)

var (
	cfgPath  string
	debugLog bool
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "go-fretboard",
	Short: "Scales, chords and a fretboard that follows playback",
	Long: `go-fretboard spells scales and chords, draws them on any tuning,
and plays MIDI files with the sounding notes shown on the neck.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugLog {
			if err := debug.Enable(""); err != nil {
				return err
			}
		}
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = c
		debug.Log("cmd", "%s with config %+v", cmd.Name(), *cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/go-fretboard/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write a debug log to ~/.config/go-fretboard/debug.log")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func loadTheme() *theme.Theme {
	palette, err := theme.LoadOrDefault(cfg.Palette)
	if err != nil {
		debug.Log("cmd", "palette %q: %v", cfg.Palette, err)
	}
	return theme.New(palette)
}
