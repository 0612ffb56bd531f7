package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
)

func init() {
	verifierCmd.AddCommand(verifierAddCmd)
	verifierCmd.AddCommand(verifierRemoveCmd)
	verifierCmd.AddCommand(verifierListCmd)
	rootCmd.AddCommand(verifierCmd)
}

var verifierCmd = &cobra.Command{
	Use:   "verifier",
	Short: "Manage which agents may score deliverables",
}

var verifierAddCmd = &cobra.Command{
	Use:   "add AGENT",
	Short: "Grant scoring authority to an agent (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifierAdd,
}

var verifierRemoveCmd = &cobra.Command{
	Use:   "remove AGENT",
	Short: "Revoke an agent's scoring authority (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifierRemove,
}

var verifierListCmd = &cobra.Command{
	Use:   "list",
	Short: "List authorized verifiers",
	RunE:  runVerifierList,
}

func runVerifierAdd(cmd *cobra.Command, args []string) error {
	caller, err := requireAgent()
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Ledger.AddVerifier(caller, args[0]); err != nil {
		return err
	}

	fmt.Printf("Added verifier %s\n", args[0])
	return nil
}

func runVerifierRemove(cmd *cobra.Command, args []string) error {
	caller, err := requireAgent()
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Ledger.RemoveVerifier(caller, args[0]); err != nil {
		return err
	}

	fmt.Printf("Removed verifier %s\n", args[0])
	return nil
}

func runVerifierList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	verifiers := d.Ledger.Verifiers()
	if len(verifiers) == 0 {
		fmt.Println("No verifiers authorized. Run 'agentpay verifier add' as the admin.")
		return nil
	}

	for _, v := range verifiers {
		fmt.Println(v)
	}
	return nil
}
