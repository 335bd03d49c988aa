package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finsight-dev/finsight/internal/id"
	"github.com/finsight-dev/finsight/internal/model"
)

func newAccountsCommand(root *rootOptions) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect GL accounts",
	}
	accountsCmd.AddCommand(newAccountsListCommand(root), newAccountsShowCommand(root))
	return accountsCmd
}

func newAccountsListCommand(root *rootOptions) *cobra.Command {
	var stage, department, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := root.open(cmd)
			if err != nil {
				return err
			}

			list := ws.Store.Filter(func(a model.Account) bool {
				if stage != "" && !strings.EqualFold(a.StageLabel(), stage) {
					return false
				}
				if department != "" && !strings.EqualFold(a.Department, department) {
					return false
				}
				if status != "" && !strings.EqualFold(string(a.ReviewStatus), status) {
					return false
				}
				return true
			})
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts.")
				return nil
			}

			rows := make([][]string, len(list))
			for i, a := range list {
				rows[i] = []string{
					id.FormatAccountID(a.ID), a.AccountNumber, a.AccountName, a.Department,
					string(a.ReviewStatus), a.StageLabel(), strconv.Itoa(a.MistakeCount),
				}
			}
			printTable(cmd.OutOrStdout(),
				[]string{"ID", "Number", "Account", "Department", "Status", "Stage", "Mistakes"},
				rows, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight)
			return nil
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "only accounts at this stage (or Finalized)")
	cmd.Flags().StringVar(&department, "department", "", "only accounts of this responsible department")
	cmd.Flags().StringVar(&status, "status", "", "only accounts with this review status")

	return cmd
}

func newAccountsShowCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one account",
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
			a, err := ws.Store.Get(accountID)
			if err != nil {
				return err
			}

			printTable(cmd.OutOrStdout(), []string{"Field", "Value"}, [][]string{
				{"ID", id.FormatAccountID(a.ID)},
				{"G/L Account Number", a.AccountNumber},
				{"G/L Account", a.AccountName},
				{"Responsible Department", a.Department},
				{"BS/PL", a.BSPL},
				{"Status", string(a.StatusCategory)},
				{"Main Head", a.MainHead},
				{"Sub Head", a.SubHead},
				{"SPOC", a.SPOC},
				{"Reviewer", a.Reviewer},
				{"Review Status", string(a.ReviewStatus)},
				{"Current Stage", a.StageLabel()},
				{"Mistakes", strconv.Itoa(a.MistakeCount)},
			})
			return nil
		},
	}
}
