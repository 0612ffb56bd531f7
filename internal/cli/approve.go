package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	rootCmd.AddCommand(approveCmd)
}

var approveCmd = &cobra.Command{
	Use:   "approve AMOUNT",
	Short: "Set how much of your balance escrow may lock",
	Long: `Set your escrow allowance to AMOUNT. The allowance is absolute,
not additive: approving 500 twice leaves 500 approved. Locks consume
it; approve again to keep creating tasks.`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

func runApprove(cmd *cobra.Command, args []string) error {
	owner, err := requireAgent()
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Treasury.Approve(owner, amount); err != nil {
		return err
	}

	fmt.Printf("Approved %s for escrow from %s\n", domain.FormatAmount(amount), owner)
	return nil
}
