package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	createCmd.Flags().DurationVar(&createTimeout, "timeout", 0, "Submission deadline (e.g. 2h, 30m); 0 uses the ledger default")
	rootCmd.AddCommand(createCmd)
}

var createTimeout time.Duration

var createCmd = &cobra.Command{
	Use:   "create PAYEE AMOUNT DESCRIPTION",
	Short: "Open an escrow task, locking AMOUNT against it",
	Long: `Open an escrow task. The amount is locked from your balance
immediately and pays out when a verifier scores the deliverable.

You must have approved at least AMOUNT for escrow first ('agentpay approve').`,
	Args: cobra.ExactArgs(3),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	payer, err := requireAgent()
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	task, err := d.Ledger.CreateTask(payer, args[0], amount, args[2], createTimeout)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %d: %s → %s, %s locked in escrow\n",
		task.ID, task.Payer, task.Payee, domain.FormatAmount(task.Amount))
	fmt.Printf("Deadline: %s\n", task.Deadline().Format("2006-01-02 15:04:05"))
	return nil
}
