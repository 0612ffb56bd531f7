package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	adminCmd.AddCommand(adminStatusCmd)
	adminCmd.AddCommand(adminPauseCmd)
	adminCmd.AddCommand(adminUnpauseCmd)
	adminCmd.AddCommand(adminTimeoutCmd)
	adminCmd.AddCommand(adminLimitsCmd)
	rootCmd.AddCommand(adminCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operate the ledger: status, pause, timeout, limits",
}

var adminStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show aggregate ledger state",
	RunE:  runAdminStatus,
}

var adminPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Stop accepting new tasks (admin only)",
	RunE:  runAdminPause,
}

var adminUnpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Resume accepting new tasks (admin only)",
	RunE:  runAdminUnpause,
}

var adminTimeoutCmd = &cobra.Command{
	Use:   "timeout DURATION",
	Short: "Set the default submission deadline (admin only)",
	Long:  `Set the deadline applied to tasks created without an explicit timeout, e.g. '24h' or '90m'.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminTimeout,
}

var adminLimitsCmd = &cobra.Command{
	Use:   "limits MIN MAX",
	Short: "Set the accepted task amount range (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminLimits,
}

func runAdminStatus(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ov := d.Ledger.Overview()

	fmt.Printf("Tasks:            %d total / %d open\n", ov.TasksTotal, ov.TasksOpen)
	fmt.Printf("  Resolved:       %d\n", ov.TasksResolved)
	fmt.Printf("  Cancelled:      %d\n", ov.TasksCancelled)
	fmt.Printf("  Timed out:      %d\n", ov.TasksTimedOut)
	fmt.Printf("Escrow locked:    %s\n", domain.FormatAmount(ov.EscrowLocked))
	fmt.Printf("Verifiers:        %d\n", ov.Verifiers)
	fmt.Printf("Default timeout:  %s\n", time.Duration(ov.DefaultTimeoutSecs)*time.Second)
	fmt.Printf("Amount limits:    %s - %s\n",
		domain.FormatAmount(ov.MinTaskAmount), domain.FormatAmount(ov.MaxTaskAmount))
	fmt.Printf("Paused:           %v\n", ov.Paused)
	return nil
}

func runAdminPause(cmd *cobra.Command, args []string) error {
	caller, err := requireAgent()
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Ledger.Pause(caller); err != nil {
		return err
	}

	fmt.Println("Ledger paused: new tasks are rejected, open tasks still settle")
	return nil
}

func runAdminUnpause(cmd *cobra.Command, args []string) error {
	caller, err := requireAgent()
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Ledger.Unpause(caller); err != nil {
		return err
	}

	fmt.Println("Ledger unpaused")
	return nil
}

func runAdminTimeout(cmd *cobra.Command, args []string) error {
	caller, err := requireAgent()
	if err != nil {
		return err
	}
	timeout, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[0], err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Ledger.SetDefaultTimeout(caller, timeout); err != nil {
		return err
	}

	fmt.Printf("Default timeout set to %s\n", timeout)
	return nil
}

func runAdminLimits(cmd *cobra.Command, args []string) error {
	caller, err := requireAgent()
	if err != nil {
		return err
	}
	min, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	max, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Ledger.SetAmountLimits(caller, min, max); err != nil {
		return err
	}

	fmt.Printf("Task amounts limited to %s - %s\n",
		domain.FormatAmount(min), domain.FormatAmount(max))
	return nil
}
