package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finsight-dev/finsight/internal/id"
	"github.com/finsight-dev/finsight/internal/model"
	"github.com/finsight-dev/finsight/internal/workflow"
)

func newApproveCommand(root *rootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve an account at its current stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			ws, release, err := root.openLocked(cmd)
			if err != nil {
				return err
			}
			defer release()

			actor, err := ws.User(as)
			if err != nil {
				return err
			}
			res, err := ws.Engine.Approve(accountID, actor)
			if err != nil {
				return err
			}
			if err := refused(res, actor); err != nil {
				return err
			}

			a := res.Account
			last := a.AuditLog[len(a.AuditLog)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Approved %s (%s): %s -> %s\n",
				id.FormatAccountID(a.ID), a.AccountNumber, last.From, last.To)

			_, err = ws.Save(fmt.Sprintf("approve: %s %s by %s", id.FormatAccountID(a.ID), last.From, actor.Name))
			return err
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "configured user performing the approval (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

func newRejectCommand(root *rootOptions) *cobra.Command {
	var as, reason string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an account back to the first stage",
		Long:  "Marks the account as a mismatch and restarts its review. A reason is\nrequired; without --reason it is asked for interactively.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			ws, release, err := root.openLocked(cmd)
			if err != nil {
				return err
			}
			defer release()

			actor, err := ws.User(as)
			if err != nil {
				return err
			}
			tok, res, err := ws.Engine.RequestReject(accountID, actor)
			if err != nil {
				return err
			}
			if err := refused(res, actor); err != nil {
				return err
			}

			if strings.TrimSpace(reason) == "" {
				reason = promptReason(cmd.OutOrStdout(), cmd.InOrStdin(), accountID)
			}
			res, err = ws.Engine.SubmitReject(tok, actor, reason)
			if err != nil {
				ws.Engine.CancelReject(tok)
				return err
			}
			if err := refused(res, actor); err != nil {
				return err
			}

			a := res.Account
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s (%s): back to %s, mistakes now %d\n",
				id.FormatAccountID(a.ID), a.AccountNumber, a.CurrentStage, a.MistakeCount)

			last := a.AuditLog[len(a.AuditLog)-1]
			_, err = ws.Save(fmt.Sprintf("reject: %s %s by %s", id.FormatAccountID(a.ID), last.From, actor.Name))
			return err
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "configured user performing the rejection (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "why the account is rejected")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

func promptReason(out io.Writer, in io.Reader, accountID int) string {
	fmt.Fprintf(out, "Reason for rejecting %s: ", id.FormatAccountID(accountID))
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

// refused turns a transition that changed nothing into an error for the CLI.
func refused(res workflow.Result, actor model.User) error {
	a := res.Account
	switch res.Outcome {
	case workflow.OutcomeWrongActor:
		return fmt.Errorf("no change: %s is at stage %q but %s acts as %q",
			id.FormatAccountID(a.ID), a.CurrentStage, actor.Name, actor.Role)
	case workflow.OutcomeFinalized:
		return fmt.Errorf("no change: %s is already finalized", id.FormatAccountID(a.ID))
	case workflow.OutcomeApplied:
		return nil
	}
	return errors.New("unexpected workflow outcome " + string(res.Outcome))
}
