// Package main is the single-binary entrypoint for AgentPay: the
// escrow daemon, its API, and the operator CLI in one executable.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/wildhash/agentpay/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Optional .env next to the binary: AGENTPAY_HOME, AGENTPAY_AGENT.
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	cli.Execute(version)
}
