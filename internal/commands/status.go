package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/output"
	"github.com/dotcommander/kudos/internal/state"
)

// NewStatusCmd creates the status command. Asks the daemon first; falls back
// to the state file so status works when the daemon is down.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status, level and XP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			socketPath, err := app.SocketPath()
			if err != nil {
				return cmdErr(err)
			}

			if data, err := queryDaemon(socketPath, models.CmdStatus); err == nil {
				var payload any
				if err := json.Unmarshal(data, &payload); err != nil {
					return cmdErr(err)
				}
				return output.PrintSuccess(payload)
			}

			statePath, err := app.StatePath()
			if err != nil {
				return cmdErr(err)
			}
			s := state.Load(statePath)

			type resp struct {
				Running   bool   `json:"running"`
				XP        int    `json:"xp"`
				Level     int    `json:"level"`
				LevelName string `json:"level_name"`
			}
			return output.PrintSuccess(resp{
				Running:   false,
				XP:        s.XP,
				Level:     s.Level,
				LevelName: s.LevelName,
			})
		},
	}
}
