package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kvwire/redikv/app/redikv"
	"github.com/kvwire/redikv/app/redikv/config"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.Default()
	if err := cfg.LoadFile(config.PreParseConfigFile(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, "loading config file:", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:     "redikv",
		Short:   "An in-memory, RESP-compatible key-value store.",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := redikv.NewLogger()
			server := redikv.NewServer(cfg, log)
			return server.Run(context.Background())
		},
	}
	cfg.RegisterFlags(root.Flags())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "redikv:", err)
		os.Exit(1)
	}
}
