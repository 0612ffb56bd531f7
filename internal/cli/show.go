package cli

import (
	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show TASK_ID",
	Short: "Show detailed information about a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	task, err := d.Ledger.GetTask(id)
	if err != nil {
		return err
	}

	printTask(task)
	return nil
}
