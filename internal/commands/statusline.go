package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/render"
	"github.com/dotcommander/kudos/internal/state"
)

// statuslineBarWidth is the XP bar width in the one-line summary.
const statuslineBarWidth = 10

// NewStatuslineCmd creates the statusline command: a single plain-text line
// for embedding in shell prompts and editor status bars.
func NewStatuslineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statusline",
		Short: "Print a one-line progress summary for prompt integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statePath, err := app.StatePath()
			if err != nil {
				return err
			}
			s := state.Load(statePath)
			fmt.Fprintln(cmd.OutOrStdout(), Statusline(s))
			return nil
		},
	}
}

// Statusline formats the one-line summary for a state snapshot.
func Statusline(s *state.State) string {
	line := fmt.Sprintf("⚡ Lvl %d %s %s %d XP",
		s.Level, s.LevelName, render.ProgressBar(s, statuslineBarWidth), s.XP)
	if s.CommitStreakDays > 1 {
		line += fmt.Sprintf(" 🔥 %dd", s.CommitStreakDays)
	}
	return line
}
