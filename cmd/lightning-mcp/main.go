package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/journal"
	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/server"
	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagEnvFile        = "env-file"
	flagAPIKey         = "api-key"
	flagMnemonic       = "mnemonic"
	flagPassphrase     = "passphrase"
	flagNetwork        = "network"
	flagDataDir        = "data-dir"
	flagTransportMode  = "transport-mode"
	flagHTTPHost       = "http-host"
	flagHTTPPort       = "http-port"
	flagHTTPPath       = "http-path"
	flagNodeAddr       = "node-addr"
	flagTLSCert        = "tls-cert"
	flagNodeInsecure   = "node-insecure"
	flagConnectTimeout = "connect-timeout"
	flagJournalDSN     = "journal-dsn"
	flagLogLevel       = "log-level"
	flagLimit          = "limit"

	envPrefix           = "LNMCP"
	defaultEnvFile      = ".env"
	defaultJournalLimit = 20
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lightning-mcp: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := server.Config{}
	cmd := &cobra.Command{
		Use:           "lightning-mcp",
		Short:         "MCP server exposing a Lightning wallet as tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(cmd)
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg)
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.String(flagEnvFile, defaultEnvFile, "dotenv file loaded before reading the environment")
	persistent.String(flagDataDir, "", "wallet storage directory (default ./data)")
	persistent.String(flagJournalDSN, "", "operation journal DSN: postgres:// URL, sqlite:// URL or file path (default <data-dir>/journal.db)")

	cmd.Flags().String(flagAPIKey, "", "hex-encoded LND admin macaroon (required)")
	cmd.Flags().String(flagMnemonic, "", "24-word wallet seed (required)")
	cmd.Flags().String(flagPassphrase, "", "wallet password")
	cmd.Flags().String(flagNetwork, "", "testnet or mainnet (default mainnet)")
	cmd.Flags().String(flagTransportMode, "", "stdio, http or asgi (default stdio)")
	cmd.Flags().String(flagHTTPHost, "", "HTTP listen host (default 0.0.0.0)")
	cmd.Flags().Int(flagHTTPPort, 0, "HTTP listen port (default 8000)")
	cmd.Flags().String(flagHTTPPath, "", "MCP endpoint path (default /mcp)")
	cmd.Flags().String(flagNodeAddr, "", "LND gRPC address (default localhost:10009)")
	cmd.Flags().String(flagTLSCert, "", "LND TLS certificate path (default <data-dir>/tls.cert when present)")
	cmd.Flags().Bool(flagNodeInsecure, false, "dial LND without TLS")
	cmd.Flags().Duration(flagConnectTimeout, 0, "LND connect timeout (default 15s)")
	cmd.Flags().String(flagLogLevel, "", "log level (default info)")

	cmd.AddCommand(newJournalCommand())
	return cmd
}

func newJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the most recent tool operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd, flagDataDir, flagJournalDSN, flagLimit)
			if err != nil {
				return err
			}
			dataDir := strings.TrimSpace(v.GetString(flagDataDir))
			if dataDir == "" {
				dataDir = "./data"
			}
			return printJournal(cmd, v.GetString(flagJournalDSN), dataDir, v.GetInt(flagLimit))
		},
	}
	cmd.Flags().Int(flagLimit, defaultJournalLimit, "number of entries to print")
	return cmd
}

func printJournal(cmd *cobra.Command, dsn string, dataDir string, limit int) error {
	db, closeDB, err := journal.Open(cmd.Context(), dsn, dataDir)
	if err != nil {
		return fmt.Errorf("journal open: %w", err)
	}
	defer func() { _ = closeDB() }()
	operationJournal, err := journal.New(db)
	if err != nil {
		return err
	}
	if err := operationJournal.Migrate(cmd.Context()); err != nil {
		return err
	}
	entries, err := operationJournal.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

func loadEnvFile(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString(flagEnvFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newViper(cmd *cobra.Command, flagNames ...string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, flagName := range flagNames {
		if err := v.BindPFlag(flagName, cmd.Flag(flagName)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func loadConfig(cmd *cobra.Command, cfg *server.Config) error {
	v, err := newViper(cmd,
		flagAPIKey, flagMnemonic, flagPassphrase, flagNetwork, flagDataDir, flagTransportMode,
		flagHTTPHost, flagHTTPPort, flagHTTPPath, flagNodeAddr, flagTLSCert, flagNodeInsecure,
		flagConnectTimeout, flagJournalDSN, flagLogLevel,
	)
	if err != nil {
		return err
	}

	transportMode, err := server.ParseTransportMode(v.GetString(flagTransportMode))
	if err != nil {
		return err
	}
	cfg.APIKey = strings.TrimSpace(v.GetString(flagAPIKey))
	cfg.Mnemonic = strings.TrimSpace(v.GetString(flagMnemonic))
	cfg.Passphrase = v.GetString(flagPassphrase)
	cfg.Network = wallet.ParseNetwork(v.GetString(flagNetwork))
	cfg.DataDir = strings.TrimSpace(v.GetString(flagDataDir))
	cfg.TransportMode = transportMode
	cfg.HTTPHost = strings.TrimSpace(v.GetString(flagHTTPHost))
	cfg.HTTPPort = v.GetInt(flagHTTPPort)
	cfg.HTTPPath = strings.TrimSpace(v.GetString(flagHTTPPath))
	cfg.NodeAddress = strings.TrimSpace(v.GetString(flagNodeAddr))
	cfg.TLSCertPath = strings.TrimSpace(v.GetString(flagTLSCert))
	cfg.NodeInsecure = v.GetBool(flagNodeInsecure)
	cfg.ConnectTimeout = v.GetDuration(flagConnectTimeout)
	cfg.JournalDSN = strings.TrimSpace(v.GetString(flagJournalDSN))
	cfg.LogLevel = strings.TrimSpace(v.GetString(flagLogLevel))

	return cfg.Validate()
}
