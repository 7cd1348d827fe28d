package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/kongswap/treasury-adaptor/internal/adaptor"
	"github.com/kongswap/treasury-adaptor/internal/agent"
	"github.com/kongswap/treasury-adaptor/internal/audit"
	"github.com/kongswap/treasury-adaptor/internal/book"
	"github.com/kongswap/treasury-adaptor/internal/config"
	"github.com/kongswap/treasury-adaptor/internal/engine"
	"github.com/kongswap/treasury-adaptor/internal/logger"
	"github.com/kongswap/treasury-adaptor/internal/state"
	"github.com/kongswap/treasury-adaptor/internal/types"
	"github.com/kongswap/treasury-adaptor/internal/validation"
	"github.com/kongswap/treasury-adaptor/internal/web"
)

// main is the entry point for the treasury adaptor.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Treasury adaptor starting...")

	// Initialize database connection
	dbCfg := state.DBConfig{
		Host: config.DBHost, Port: config.DBPort,
		User: config.DBUser, Password: config.DBPassword,
		DBName: config.DBName, SSLMode: config.DBSSLMode,
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	position, err := loadOrCreatePosition()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load the position")
	}

	// --- 2. Service Wiring ---
	gateway := agent.NewGatewayAgent(config.GatewayURL)
	trail := audit.NewTrail(state.NewAuditStore())
	eng := engine.New(gateway, trail, config.SelfCanisterID)

	service := adaptor.NewService(eng, position, adaptor.Config{
		SelfID:        config.SelfCanisterID,
		KongID:        config.KongBackendID,
		ICPLedgerID:   config.ICPLedgerID,
		Owner0Account: config.Owner0Account,
		Owner1Account: config.Owner1Account,
		SavePosition:  state.SavePosition,
	})

	// --- 3. Web Server ---
	webServer := web.NewWebServer(strconv.Itoa(config.WebPort), service)
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- 4. Initial Deposit ---
	// Installation behaves like a zero-delay timer: the configured
	// allowances are deposited as soon as the instance is up.
	if allowances := initialAllowances(); allowances != nil {
		go func() {
			log.Info().Msg("Running the initial deposit")
			if _, errs := service.Deposit(ctx, allowances); len(errs) > 0 {
				for _, e := range errs {
					log.Error().Err(e).Msg("Initial deposit error")
				}
			}
		}()
	}

	// --- 5. Periodic Reconciliation ---
	ticker := time.NewTicker(config.RefreshInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			service.RunPeriodicTasks(ctx)
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
			return
		}
	}
}

// loadOrCreatePosition restores the persisted position, or builds a fresh one
// from the configured pair.
func loadOrCreatePosition() (*book.Position, error) {
	position, err := state.LoadPosition()
	if err != nil {
		return nil, err
	}
	if position != nil {
		log.Info().Msg("Restored the persisted position")
		return position, nil
	}

	asset0, verr := validation.NewAsset(config.Asset0Symbol, config.Asset0LedgerID, config.Asset0Fee)
	if verr != nil {
		return nil, verr
	}
	asset1, verr := validation.NewAsset(config.Asset1Symbol, config.Asset1LedgerID, config.Asset1Fee)
	if verr != nil {
		return nil, verr
	}

	manager := types.Account{Owner: config.SelfCanisterID}
	position = book.NewPosition(asset0, asset1,
		config.Owner0Account, config.Owner1Account, manager,
		uint64(time.Now().UnixNano()))
	log.Info().
		Str("asset_0", asset0.String()).
		Str("asset_1", asset1.String()).
		Msg("Created a fresh position")
	return position, nil
}

// initialAllowances builds the install-time allowances, or nil when the
// instance starts without an initial deposit.
func initialAllowances() []validation.Allowance {
	if config.InitAllowance0 == 0 || config.InitAllowance1 == 0 {
		log.Info().Msg("No initial allowances configured, skipping the initial deposit")
		return nil
	}

	asset0, err := validation.NewAsset(config.Asset0Symbol, config.Asset0LedgerID, config.Asset0Fee)
	if err != nil {
		log.Error().Err(err).Msg("Invalid asset 0 configuration")
		return nil
	}
	asset1, err := validation.NewAsset(config.Asset1Symbol, config.Asset1LedgerID, config.Asset1Fee)
	if err != nil {
		log.Error().Err(err).Msg("Invalid asset 1 configuration")
		return nil
	}

	a0, err := validation.ValidateAllowance(asset0, config.InitAllowance0, config.Owner0Account)
	if err != nil {
		log.Error().Err(err).Msg("Invalid initial allowance for asset 0")
		return nil
	}
	a1, err := validation.ValidateAllowance(asset1, config.InitAllowance1, config.Owner1Account)
	if err != nil {
		log.Error().Err(err).Msg("Invalid initial allowance for asset 1")
		return nil
	}
	return []validation.Allowance{a0, a1}
}
