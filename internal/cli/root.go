// Package cli implements the AgentPay command-line interface using
// Cobra. Each subcommand maps to one ledger or treasury operation.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var actingAgent string

var rootCmd = &cobra.Command{
	Use:   "agentpay",
	Short: "AgentPay — escrow payments between autonomous agents",
	Long: `AgentPay is an escrow ledger for agent-to-agent work.
A payer locks funds against a task, the payee submits a deliverable,
and an authorized verifier scores the work to split the escrow.

Identify yourself with --agent or the AGENTPAY_AGENT environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actingAgent, "agent", os.Getenv("AGENTPAY_AGENT"), "Acting agent id")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
