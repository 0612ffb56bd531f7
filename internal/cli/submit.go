package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	rootCmd.AddCommand(submitCmd)
}

var submitCmd = &cobra.Command{
	Use:   "submit TASK_ID DELIVERABLE_HASH",
	Short: "Submit a deliverable for a task you are the payee of",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	payee, err := requireAgent()
	if err != nil {
		return err
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	task, err := d.Ledger.SubmitDeliverable(payee, id, args[1])
	if err != nil {
		return err
	}

	if task.Status == domain.StatusTimedOut {
		fmt.Printf("Deadline passed: task %d timed out and %s was refunded to %s\n",
			task.ID, domain.FormatAmount(task.RefundAmount), task.Payer)
		return nil
	}

	fmt.Printf("Submitted deliverable for task %d, awaiting verification\n", task.ID)
	return nil
}
