package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/commands/hookcmd"
	"github.com/dotcommander/kudos/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "kudos",
		Short:         "Celebration daemon for agent coding sessions (XP, streaks, achievements)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.EnsureConfigDir()
		},
	}

	root.Flags().BoolP("version", "v", false, "version for kudos")

	root.AddCommand(NewDaemonCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewStatsCmd())
	root.AddCommand(NewStatuslineCmd())
	root.AddCommand(NewHookCmd())
	root.AddCommand(NewSoundsCmd())
	root.AddCommand(NewLogCmd())
	root.AddCommand(NewSchemaCmd(root))

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}

// newHookInstallCmds exposes the hookcmd install/uninstall pair.
func newHookInstallCmds() []*cobra.Command {
	return []*cobra.Command{hookcmd.NewInstallCmd(), hookcmd.NewUninstallCmd()}
}
