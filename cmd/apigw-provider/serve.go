package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/api"
)

func newServeCommand(configPath *string) *cobra.Command {
	var (
		port    int
		host    string
		apiKeys string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lifecycle events over HTTP",
		Example: `  # Listen on 8080
  apigw-provider serve

  # Require an API key, against LocalStack
  AWS_ENDPOINT_URL=http://localhost:4566 apigw-provider serve --api-keys "key1,key2"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctrl.SetupSignalHandler()

			provider, err := loadProvider(ctx, *configPath)
			if err != nil {
				return err
			}
			if _, err := provider.CheckCredentials(ctx); err != nil {
				// the server still starts; /health reports the problem
				setupLog.Error(err, "AWS credentials are not usable")
			}

			auth := api.AuthConfig{Enabled: apiKeys != ""}
			if apiKeys != "" {
				auth.APIKeys = strings.Split(apiKeys, ",")
			}
			server := api.NewServer(&api.ServerConfig{
				Port:    port,
				Host:    host,
				Version: version,
				Auth:    auth,
			}, provider.Dispatcher, provider)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			setupLog.Info("Shutting down server")
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Address to listen on")
	cmd.Flags().StringVar(&apiKeys, "api-keys", "", "Comma separated API keys (enables authentication)")
	return cmd
}
