package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/server"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "Address to listen on")
	lo.Must0(viper.BindPFlag(key.ServerAddress, serveCmd.Flags().Lookup("address")))

	serveCmd.Flags().String("public-url", "", "Public base URL used in proxy links")
	lo.Must0(viper.BindPFlag(key.ServerPublicURL, serveCmd.Flags().Lookup("public-url")))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolve API and the manifest proxy",
	Long: `Serve the HTTP API:

  GET /api/v1/resolve/{server}/{source}/   resolve a source (?proxy=1, ?force=1)
  GET /proxy-stream/{token}/               proxied HLS playlist
  GET /metrics                             Prometheus metrics
  GET /healthz                             liveness`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		d, f, err := dispatcher(fetch.Interactive)
		handleErr(err)

		log.WithFields(log.Fields{"servers": d.Registry().Names()}).Info("servers registered")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:         viper.GetString(key.ServerAddress),
			ReadTimeout:  viper.GetDuration(key.ServerReadTimeout),
			WriteTimeout: viper.GetDuration(key.ServerWriteTimeout),
		}
		handleErr(server.New(d, f, viper.GetString(key.ServerPublicURL)).ListenAndServe(ctx, srv))
	},
}
