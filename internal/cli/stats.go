package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats [AGENT]",
	Short: "Show an agent's reputation counters",
	Long: `Show lifetime reputation for an agent: tasks created and
received, successful deliveries, and units earned and spent.
Defaults to the acting agent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats := d.Ledger.AgentStats(agent)

	fmt.Printf("Agent:            %s\n", agent)
	fmt.Printf("Tasks created:    %d\n", stats.TasksCreated)
	fmt.Printf("Tasks received:   %d\n", stats.TasksReceived)
	fmt.Printf("Successful:       %d\n", stats.SuccessfulTasks)
	fmt.Printf("Earned:           %s\n", domain.FormatAmount(stats.Earned))
	fmt.Printf("Spent:            %s\n", domain.FormatAmount(stats.Spent))
	return nil
}
