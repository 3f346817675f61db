// Tourvia chat widget host.
//
// The root command opens the widget in the terminal; `tourchat serve` hosts
// the web page shell with the embedded widget instead.
//
// Environment variables:
//   TOURCHAT_CONFIG_JSON - full config JSON (alternative to the config file)
//   TOURCHAT_API_BASE_URL / TOURCHAT_API_KEY - remote chat endpoint
//   TOURCHAT_* - individual field overrides, see pkg/config

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tourvia/tourchat/pkg/chat"
	"github.com/tourvia/tourchat/pkg/config"
	"github.com/tourvia/tourchat/pkg/logger"
	"github.com/tourvia/tourchat/pkg/reveal"
	"github.com/tourvia/tourchat/pkg/session"
	"github.com/tourvia/tourchat/pkg/storage"
	"github.com/tourvia/tourchat/pkg/tui"
	"github.com/tourvia/tourchat/pkg/web"
	"github.com/tourvia/tourchat/pkg/widget"
)

var (
	cfgPath string
	verbose bool
	version = "dev"

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "tourchat",
	Short:   "Tourvia booking-site chat widget",
	Long:    "Chat widget for the Tourvia tour-booking site: a terminal surface for local use\nand a web surface (`tourchat serve`) hosting the embeddable page.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger.SetLevel(cfg.Logging.Level)
		logger.SetPretty(cfg.Logging.Pretty)
		if verbose {
			logger.SetVerbose(true)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := buildWidget()
		if err != nil {
			return err
		}

		// The TUI owns the terminal; logs go to a file next to the state.
		logPath := filepath.Join(filepath.Dir(cfg.StoragePath()), "tourchat.log")
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			defer f.Close()
			logger.SetOutput(f)
		}

		return tui.New(cfg.Widget, w).Run()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the web page shell with the embedded widget",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := buildWidget()
		if err != nil {
			return err
		}

		server := web.NewServer(cfg.Web, w)
		if err := server.Start(cmd.Context()); err != nil {
			return err
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.InfoCF("main", "Shutting down", nil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Stop(ctx)
	},
}

func buildWidget() (*widget.Widget, error) {
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}

	store := storage.NewFileStore(cfg.StoragePath())
	sess := session.NewManager(store)
	client := chat.NewClient(cfg.API.BaseURL, cfg.API.Key, time.Duration(cfg.API.TimeoutSeconds)*time.Second)
	return widget.New(cfg.Widget, client, sess, reveal.NewScheduler()), nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.json", "config file path (.json or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
