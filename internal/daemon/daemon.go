package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/wildhash/agentpay/internal/api"
	"github.com/wildhash/agentpay/internal/app/escrow"
	"github.com/wildhash/agentpay/internal/app/treasury"
	"github.com/wildhash/agentpay/internal/health"
	"github.com/wildhash/agentpay/internal/infra/events"
	_ "github.com/wildhash/agentpay/internal/infra/metrics" // Register Prometheus metrics
	"github.com/wildhash/agentpay/internal/infra/sqlite"
	"github.com/wildhash/agentpay/internal/infra/sweeper"
)

// Daemon is the core AgentPay runtime. It wires together all services.
type Daemon struct {
	Config     Config
	DB         *sqlite.DB
	Treasury   *treasury.Service
	Ledger     *escrow.Ledger
	Bus        *events.Bus
	Relay      *events.Relay // nil unless the Redis relay is enabled
	Sweeper    *sweeper.Sweeper
	Health     *health.Checker
	Server     *api.Server
	InstanceID string
	cancel     context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	// Open SQLite
	db, err := sqlite.Open(agentpayHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Treasury over the funds ledger
	treas := treasury.NewService(db)

	// Event bus
	bus := events.NewBus()

	// Escrow ledger
	led := escrow.NewLedger(escrow.Config{
		Admin:          cfg.Ledger.Admin,
		DefaultTimeout: time.Duration(cfg.Ledger.DefaultTimeoutSecs) * time.Second,
		MinTaskAmount:  cfg.Ledger.MinTaskAmount,
		MaxTaskAmount:  cfg.Ledger.MaxTaskAmount,
	}, db, treas, bus)
	if err := led.Restore(); err != nil {
		db.Close()
		return nil, fmt.Errorf("restore ledger: %w", err)
	}

	// Instance identity: config override, else generated once and
	// persisted so the daemon keeps its name across restarts.
	instanceID := cfg.Node.ID
	if instanceID == "" {
		instanceID, err = db.GetSetting("instance_id")
		if err != nil {
			log.Printf("[daemon] WARNING: read instance id: %v", err)
		}
		if instanceID == "" {
			instanceID = uuid.New().String()
			if err := db.SetSetting("instance_id", instanceID); err != nil {
				log.Printf("[daemon] WARNING: persist instance id: %v", err)
			}
		}
	}

	d := &Daemon{
		Config:     cfg,
		DB:         db,
		Treasury:   treas,
		Ledger:     led,
		Bus:        bus,
		InstanceID: instanceID,
	}

	// Timeout sweeper
	d.Sweeper = sweeper.NewSweeper(led, time.Duration(cfg.Sweeper.IntervalSecs)*time.Second)

	// Health checker
	d.Health = health.NewChecker(db, agentpayHome(), led, treas)

	// Redis event relay. The daemon degrades to in-process events when
	// Redis is unreachable rather than refusing to start.
	if cfg.Events.RedisEnabled {
		relay, err := events.NewRelay(cfg.Events.RedisAddr, cfg.Events.RedisPassword, cfg.Events.RedisDB, cfg.Events.Channel)
		if err != nil {
			log.Printf("[daemon] WARNING: redis relay disabled: %v", err)
		} else {
			d.Relay = relay
		}
	}

	// API server
	srv := api.NewServer(led, treas, bus)
	srv.SetChecker(d.Health)
	srv.SetInstanceID(instanceID)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Background services
	go d.Health.Run(ctx)
	if d.Config.Sweeper.Enabled {
		go d.Sweeper.Run(ctx)
	}
	if d.Relay != nil {
		go d.Relay.Run(ctx, d.Bus)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     d.Server.Handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: the event stream stays open indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		d.Bus.Close()
		if d.Relay != nil {
			_ = d.Relay.Close()
		}
		_ = d.DB.Close()
	}()

	fmt.Printf("AgentPay serving on http://%s\n", addr)
	fmt.Printf("  Admin: %s\n", d.Config.Ledger.Admin)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}
	if d.Relay != nil {
		fmt.Printf("  Events: relaying to redis %s channel %q\n", d.Config.Events.RedisAddr, d.Config.Events.Channel)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Bus != nil {
		d.Bus.Close()
	}
	if d.Relay != nil {
		_ = d.Relay.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
