package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/daisyflowers/budtender/internal/catalog"
	"github.com/daisyflowers/budtender/internal/certs"
	"github.com/daisyflowers/budtender/internal/classification"
	"github.com/daisyflowers/budtender/internal/config"
	"github.com/daisyflowers/budtender/internal/recommend"
	"github.com/daisyflowers/budtender/internal/selector"
	"github.com/daisyflowers/budtender/internal/server"
	"github.com/daisyflowers/budtender/internal/session"
	"github.com/daisyflowers/budtender/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		Long: `Starts the HTTP server exposing POST /chat and GET /health.
The catalog is fetched from the menu API on demand and cached for an
hour; sessions are tracked per client so "show me something different"
actually shows something different.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":3000", "listen address")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls.enabled", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	cache, err := buildCache(store)
	if err != nil {
		return err
	}

	recommender, err := createRecommender()
	if err != nil {
		return err
	}

	cls := classification.NewDefault()
	srv := server.New(server.Config{
		Cache:      cache,
		Sessions:   session.NewStore(session.Config{}),
		Classifier: cls,
		Selector: selector.New(selector.Config{
			Classifier: cls,
			Rand:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		}),
		Recommender: recommender,
		Logbook:     store,
		Version:     version,
	})

	// Warm the catalog cache so the first chat doesn't eat the fetch.
	snapshot := cache.Products(ctx)
	if len(snapshot.Products) == 0 {
		slog.Warn("Catalog preload returned no products, will retry on first request")
	} else {
		slog.Info("Catalog preloaded", "products", len(snapshot.Products))
	}

	addr := viper.GetString("server.addr")
	errCh := make(chan error, 1)
	go func() {
		if viper.GetBool("server.tls.enabled") {
			cert, certErr := serverCertificate()
			if certErr != nil {
				errCh <- certErr
				return
			}
			slog.Info("Server listening", "addr", addr, "tls", true)
			errCh <- srv.ListenTLS(addr, cert)
			return
		}
		slog.Info("Server listening", "addr", addr)
		errCh <- srv.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server")
		return srv.Shutdown()
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
}

func serverCertificate() (tls.Certificate, error) {
	certDir := config.ExpandPath(viper.GetString("server.tls.cert_dir"))
	if certDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		certDir = fmt.Sprintf("%s/.config/daisy/certs", home)
	}

	cert, err := certs.NewManager(certDir, viper.GetStringSlice("server.tls.hosts")...).GetOrCreateCertificate()
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to prepare TLS certificate: %w", err)
	}

	return cert, nil
}

func openStorage() (*storage.SQLiteStorage, error) {
	path := config.ExpandPath(viper.GetString("storage.path"))
	if path == "" {
		path = "daisy.db"
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return store, nil
}

func buildCache(recorder catalog.SnapshotRecorder) (*catalog.Cache, error) {
	fetcher, err := buildFetcher()
	if err != nil {
		return nil, err
	}

	artifact := config.ExpandPath(viper.GetString("catalog.snapshot_path"))
	if artifact == "" {
		artifact = "products.json"
	}

	return catalog.NewCache(catalog.CacheConfig{
		Source:       fetcher,
		Recorder:     recorder,
		ArtifactPath: artifact,
	}), nil
}

func buildFetcher() (*catalog.Fetcher, error) {
	baseURL := viper.GetString("catalog.url")
	if baseURL == "" {
		return nil, fmt.Errorf("catalog.url is required (or DAISY_CATALOG_URL)")
	}

	token := viper.GetString("catalog.token")
	if token == "" {
		token = os.Getenv("JANE_API_TOKEN")
	}

	fetcher, err := catalog.NewFetcher(catalog.FetcherConfig{
		BaseURL: baseURL,
		Token:   token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	return fetcher, nil
}

// createRecommender builds the LLM client from config, falling back to
// well-known environment variables for the API key.
func createRecommender() (recommend.Client, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "anthropic"
	}

	apiKey := viper.GetString("llm.api_key")
	if apiKey == "" {
		switch provider {
		case "anthropic":
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	client, err := recommend.NewClient(recommend.Config{
		Provider: provider,
		APIKey:   apiKey,
		Model:    viper.GetString("llm.model"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return client, nil
}
