package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/JeanRibes/transcribe/server"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address, overrides the config")
	serveCmd.Flags().String("prefix", "", "path prefix, overrides the config")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the plugin over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Server
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if prefix, _ := cmd.Flags().GetString("prefix"); prefix != "" {
			cfg.Prefix = prefix
		}

		src, err := config.ServeSource()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		srv := server.New(src, config.Options(), logger.WithPrefix("server"))
		if err := srv.ListenAndServe(ctx, cfg); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
