package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/wildhash/agentpay/internal/domain"
)

// requireAgent returns the acting agent id, or an error telling the
// user how to identify themselves.
func requireAgent() (string, error) {
	if actingAgent == "" {
		return "", fmt.Errorf("no acting agent: pass --agent or set AGENTPAY_AGENT")
	}
	return actingAgent, nil
}

func parseTaskID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: expected integer units", s)
	}
	return n, nil
}

// newTable creates a tabwriter for aligned command output.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

// printTask renders one task as a field/value block.
func printTask(t *domain.Task) {
	fmt.Printf("Task:         %d\n", t.ID)
	fmt.Printf("Status:       %s\n", t.Status)
	fmt.Printf("Payer:        %s\n", t.Payer)
	fmt.Printf("Payee:        %s\n", t.Payee)
	fmt.Printf("Amount:       %s\n", domain.FormatAmount(t.Amount))
	fmt.Printf("Description:  %s\n", t.Description)
	fmt.Printf("Created:      %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Deadline:     %s\n", t.Deadline().Format("2006-01-02 15:04:05"))
	if t.DeliverableHash != "" {
		fmt.Printf("Deliverable:  %s\n", t.DeliverableHash)
	}
	if !t.SubmittedAt.IsZero() {
		fmt.Printf("Submitted:    %s\n", t.SubmittedAt.Format("2006-01-02 15:04:05"))
	}
	if t.Score != domain.ScoreUnset {
		fmt.Printf("Score:        %d/100\n", t.Score)
	}
	if t.IsTerminal() {
		fmt.Printf("Paid out:     %s\n", domain.FormatAmount(t.PayeeAmount))
		fmt.Printf("Refunded:     %s\n", domain.FormatAmount(t.RefundAmount))
	}
	if t.CancelReason != "" {
		fmt.Printf("Reason:       %s\n", t.CancelReason)
	}
}
