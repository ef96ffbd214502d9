package cmd

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-fretboard/debug"
	"go-fretboard/midi"
	"go-fretboard/playback"
	"go-fretboard/server"
	"go-fretboard/tui"
)

var (
	playBoard boardFlags
	playSynth string
	playInput string
	playSync  string
	playTrack int
	playServe string
)

func init() {
	rootCmd.AddCommand(playCmd)
	playBoard.register(playCmd.Flags())
	f := playCmd.Flags()
	f.StringVar(&playSynth, "synth", "", "MIDI output port to sound the score on (default from config, empty is silent)")
	f.StringVar(&playInput, "input", "", "MIDI input port whose held notes are shown on the neck")
	f.StringVar(&playSync, "sync", "", "sync id shared with other players")
	f.IntVar(&playTrack, "track", -1, "track to follow (-1 picks the first fretted track)")
	f.StringVar(&playServe, "serve", "", "also serve the HTTP and sync API on this address")
}

var playCmd = &cobra.Command{
	Use:   "play [file|url]",
	Short: "Play a MIDI score and follow it on the fretboard",
	Example: `  go-fretboard play song.mid --synth fluid
  go-fretboard play https://example.com/tab.mid --sync band --serve :8090
  go-fretboard play --input keystation`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		th := loadTheme()
		base, err := playBoard.input(th)
		if err != nil {
			return err
		}

		synth := playSynth
		if synth == "" {
			synth = cfg.Synth
		}
		syncID := playSync
		if syncID == "" {
			syncID = cfg.SyncID
		}

		engine := midi.NewEngine()
		if len(args) == 1 {
			engine.Title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		bus := playback.NewBus()
		ctrl := playback.NewController(engine, playback.Options{
			SyncID: syncID,
			Bus:    bus,
			Engine: playback.EngineOptions{Synth: synth, Volume: 1, Speed: 1},
			Decay:  cfg.Decay(),
			Track:  playTrack,
		})
		defer ctrl.Close()

		if err := ctrl.Init(); err != nil {
			return err
		}
		if len(args) == 1 {
			if err := ctrl.LoadURL(ctx, args[0]); err != nil {
				return err
			}
		}

		if playInput != "" {
			watcher := midi.NewInputWatcher(playInput, base.Tuning, ctrl.SetLiveNotes)
			go watcher.Run(ctx)
			go func() {
				for ev := range watcher.Events() {
					ctrl.Notice("input %s %s", ev.ID, ev.Type)
				}
			}()
		}

		if playServe != "" {
			if syncID == "" {
				return errors.New("--serve needs a sync id (--sync or sync_id in config)")
			}
			srv := server.New(cfg, bus)
			go func() {
				if err := srv.Run(ctx, playServe); err != nil {
					debug.Log("cmd", "server: %v", err)
				}
			}()
		}

		p := tea.NewProgram(tui.NewModel(ctrl, base, th), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err = p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	},
}
