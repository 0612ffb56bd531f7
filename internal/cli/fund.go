package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	rootCmd.AddCommand(fundCmd)
}

var fundCmd = &cobra.Command{
	Use:   "fund AGENT AMOUNT",
	Short: "Mint units into an agent's account (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE:  runFund,
}

func runFund(cmd *cobra.Command, args []string) error {
	caller, err := requireAgent()
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

	if caller != d.Ledger.Admin() {
		return fmt.Errorf("%w: only %s can mint units", domain.ErrNotAdmin, d.Ledger.Admin())
	}

	agent := args[0]
	if err := d.Treasury.Fund(agent, amount, "admin top-up"); err != nil {
		return err
	}

	balance, err := d.Treasury.Balance(agent)
	if err != nil {
		return err
	}

	fmt.Printf("Funded %s with %s (balance now %s)\n",
		agent, domain.FormatAmount(amount), domain.FormatAmount(balance))
	return nil
}
