package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// GatewayURL is the HTTP boundary gateway used to reach canisters.
	GatewayURL string

	// SelfCanisterID is the adaptor's own canister id; commit boundary calls
	// and LP balance queries are addressed with it.
	SelfCanisterID types.Principal
	// KongBackendID is the KongSwap backend canister.
	KongBackendID types.Principal
	// ICPLedgerID is the canonical ICP ledger canister.
	ICPLedgerID types.Principal

	// Asset0Symbol, Asset0LedgerID and Asset0LedgerFee describe the non-ICP
	// asset of the managed pair.
	Asset0Symbol   string
	Asset0LedgerID types.Principal
	Asset0Fee      uint64
	// Asset1 is always ICP.
	Asset1Symbol   string
	Asset1LedgerID types.Principal
	Asset1Fee      uint64

	// Owner0Account and Owner1Account receive remainders per asset.
	Owner0Account types.Account
	Owner1Account types.Account

	// ControllerToken gates the mutating web endpoints.
	ControllerToken string

	// InitAllowance0 and InitAllowance1 fund the immediate deposit scheduled
	// at startup. Zero disables it.
	InitAllowance0 uint64
	InitAllowance1 uint64

	// WebPort is the port the service surface listens on.
	WebPort int

	// LogLevel and LogFile configure the logger before anything else runs.
	LogLevel string
	LogFile  string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables without a default are required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	GatewayURL, err = getEnv("GATEWAY_URL")
	if err != nil {
		return err
	}

	selfID, err := getEnv("SELF_CANISTER_ID")
	if err != nil {
		return err
	}
	SelfCanisterID = types.Principal(selfID)

	kongID, err := getEnv("KONG_BACKEND_ID")
	if err != nil {
		return err
	}
	KongBackendID = types.Principal(kongID)

	icpID, err := getEnv("ICP_LEDGER_ID")
	if err != nil {
		return err
	}
	ICPLedgerID = types.Principal(icpID)

	Asset0Symbol, err = getEnv("ASSET_0_SYMBOL")
	if err != nil {
		return err
	}
	ledger0, err := getEnv("ASSET_0_LEDGER_ID")
	if err != nil {
		return err
	}
	Asset0LedgerID = types.Principal(ledger0)
	Asset0Fee, err = getEnvAsUint64("ASSET_0_LEDGER_FEE")
	if err != nil {
		return err
	}

	Asset1Symbol, err = getEnv("ASSET_1_SYMBOL")
	if err != nil {
		return err
	}
	ledger1, err := getEnv("ASSET_1_LEDGER_ID")
	if err != nil {
		return err
	}
	Asset1LedgerID = types.Principal(ledger1)
	Asset1Fee, err = getEnvAsUint64("ASSET_1_LEDGER_FEE")
	if err != nil {
		return err
	}

	owner0, err := getEnv("OWNER_0_ACCOUNT")
	if err != nil {
		return err
	}
	Owner0Account = types.Account{Owner: types.Principal(owner0)}

	owner1, err := getEnv("OWNER_1_ACCOUNT")
	if err != nil {
		return err
	}
	Owner1Account = types.Account{Owner: types.Principal(owner1)}

	ControllerToken, err = getEnv("CONTROLLER_TOKEN")
	if err != nil {
		return err
	}

	InitAllowance0, err = getEnvAsUint64OrDefault("INIT_ALLOWANCE_0", 0)
	if err != nil {
		return err
	}
	InitAllowance1, err = getEnvAsUint64OrDefault("INIT_ALLOWANCE_1", 0)
	if err != nil {
		return err
	}

	WebPort, err = getEnvAsInt("WEB_PORT")
	if err != nil {
		return err
	}

	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	LogFile = getEnvOrDefault("LOG_FILE", "")

	if err := loadDBConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("GatewayURL", GatewayURL).
		Str("SelfCanisterID", selfID).
		Str("KongBackendID", kongID).
		Str("Asset0Symbol", Asset0Symbol).
		Str("Asset1Symbol", Asset1Symbol).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

func getEnvOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsUint64(key string) (uint64, error) {
	raw, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be an unsigned integer")
	}
	return value, nil
}

func getEnvAsUint64OrDefault(key string, fallback uint64) (uint64, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be an unsigned integer")
	}
	return value, nil
}

func getEnvAsInt(key string) (int, error) {
	raw, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be an integer")
	}
	return value, nil
}
