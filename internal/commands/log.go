package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/history"
	"github.com/dotcommander/kudos/internal/output"
)

// NewLogCmd creates the log command: recent rows from the celebration
// ledger.
func NewLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent celebrations from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := history.Open()
			if err != nil {
				return cmdErr(err)
			}
			defer func() { _ = db.Close() }()

			rows, err := history.Recent(db, limit)
			if err != nil {
				return cmdErr(err)
			}
			total, err := history.Count(db)
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Total        int                   `json:"total"`
				Celebrations []history.Celebration `json:"celebrations"`
			}
			if rows == nil {
				rows = []history.Celebration{}
			}
			return output.PrintSuccess(resp{Total: total, Celebrations: rows})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max rows to return")
	return cmd
}
