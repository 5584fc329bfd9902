package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/achievements"
	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/output"
	"github.com/dotcommander/kudos/internal/state"
)

// NewStatsCmd creates the stats command: full progress including the
// achievement board. Works with or without a running daemon.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show full progression: XP, streaks, achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			socketPath, err := app.SocketPath()
			if err != nil {
				return cmdErr(err)
			}

			if data, err := queryDaemon(socketPath, models.CmdStats); err == nil {
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

			type achievementStatus struct {
				ID          string `json:"id"`
				Name        string `json:"name"`
				Description string `json:"description"`
				Unlocked    bool   `json:"unlocked"`
			}
			list := make([]achievementStatus, 0, len(achievements.Registry))
			for _, a := range achievements.Registry {
				list = append(list, achievementStatus{
					ID:          a.ID,
					Name:        a.Name,
					Description: a.Description,
					Unlocked:    s.Unlocked(a.ID),
				})
			}

			type resp struct {
				State        *state.State        `json:"state"`
				NextLevelXP  int                 `json:"next_level_xp"`
				Achievements []achievementStatus `json:"achievements"`
			}
			return output.PrintSuccess(resp{
				State:        s,
				NextLevelXP:  state.NextLevelXP(s.Level),
				Achievements: list,
			})
		},
	}
}
