package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the assistant about the accounts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := root.open(cmd)
			if err != nil {
				return err
			}
			ans := ws.Assistant.Ask(cmd.Context(), strings.Join(args, " "), ws.Store.All())
			fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
			return nil
		},
	}
}
