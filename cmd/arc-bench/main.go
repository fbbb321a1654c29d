package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := viper.New()
	rootCmd := newRunCmd(v)
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newBackendsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd.ExecuteContext(ctx)
}

// commandConfig loads the config of cmd, honoring --config.
func commandConfig(cmd *cobra.Command, v *viper.Viper) (Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(v, configFile)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
