package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	balanceCmd.Flags().IntVar(&balanceHistory, "history", 0, "Also show the last N funds ledger entries")
	rootCmd.AddCommand(balanceCmd)
}

var balanceHistory int

var balanceCmd = &cobra.Command{
	Use:   "balance [AGENT]",
	Short: "Show an agent's balance and escrow allowance",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	agent := actingAgent
	if len(args) == 1 {
		agent = args[0]
	}
	if agent == "" {
		return fmt.Errorf("no agent: pass one or set --agent")
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	balance, err := d.Treasury.Balance(agent)
	if err != nil {
		return err
	}
	allowance, err := d.Treasury.Allowance(agent)
	if err != nil {
		return err
	}

	fmt.Printf("Account:    %s\n", agent)
	fmt.Printf("Balance:    %s\n", domain.FormatAmount(balance))
	fmt.Printf("Allowance:  %s\n", domain.FormatAmount(allowance))

	if balanceHistory <= 0 {
		return nil
	}

	entries, err := d.Treasury.History(agent, balanceHistory)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("\nNo ledger entries yet.")
		return nil
	}

	fmt.Println()
	w := newTable()
	fmt.Fprintln(w, "WHEN\tTYPE\tENTRY\tAMOUNT\tTASK\tBALANCE")
	for _, e := range entries {
		taskRef := "-"
		if e.TaskID != 0 {
			taskRef = fmt.Sprintf("%d", e.TaskID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Type,
			e.EntryType,
			domain.FormatAmount(e.Amount),
			taskRef,
			domain.FormatAmount(e.Balance),
		)
	}
	return w.Flush()
}
