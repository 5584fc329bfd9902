package commands

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/audio"
	"github.com/dotcommander/kudos/internal/daemon"
	"github.com/dotcommander/kudos/internal/history"
	"github.com/dotcommander/kudos/internal/render"
)

// NewDaemonCmd creates the daemon command. Runs in the foreground until
// SIGINT/SIGTERM; producers usually start it detached via the hook path.
func NewDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the celebration daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := app.LoadSettings()
			if err != nil {
				slog.Warn("config load failed, using defaults", "err", err)
			}

			socketPath, err := app.SocketPath()
			if err != nil {
				return cmdErr(err)
			}
			statePath, err := app.StatePath()
			if err != nil {
				return cmdErr(err)
			}
			soundsDir, err := app.SoundsDir()
			if err != nil {
				return cmdErr(err)
			}

			var db *history.DB
			if settings.History.Enabled {
				db, err = history.Open()
				if err != nil {
					// The ledger is an extra; run without it.
					slog.Warn("history ledger unavailable", "err", err)
					db = nil
				} else {
					defer func() { _ = db.Close() }()
				}
			}

			renderer := render.New(settings.Visual, render.NewCoordinator(render.DefaultCooldown))
			player := audio.NewPlayer(settings.Audio, soundsDir)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := daemon.New(settings, socketPath, statePath, renderer, player, db)
			if err := srv.Run(ctx); err != nil {
				return cmdErr(err)
			}
			return nil
		},
	}
}
