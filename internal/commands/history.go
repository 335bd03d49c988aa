package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/finsight-dev/finsight/internal/id"
)

func newHistoryCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the audit log of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			ws, err := root.open(cmd)
			if err != nil {
				return err
			}
			entries, err := ws.Engine.History(accountID)
			if err != nil {
				return err
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					e.Timestamp.Local().Format(time.DateTime), e.User, string(e.Role),
					e.Action, e.From, e.To, e.Reason,
				}
			}
			printTable(cmd.OutOrStdout(),
				[]string{"Time", "User", "Role", "Action", "From", "To", "Reason"}, rows)
			return nil
		},
	}
}
