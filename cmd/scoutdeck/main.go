package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scoutdeck/cmd/scoutdeck/ui"
	"scoutdeck/internal/config"
	"scoutdeck/internal/dataset"
	"scoutdeck/internal/filter"
	"scoutdeck/internal/geo"
	"scoutdeck/internal/llm"
	"scoutdeck/internal/logging"
	"scoutdeck/internal/metrics"
	"scoutdeck/internal/recommend"
	"scoutdeck/internal/server"
	"scoutdeck/internal/store"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scoutdeck",
	Short: "scoutdeck - college baseball program explorer",
	Long: `scoutdeck explores NCAA baseball programs across all three divisions.

It joins institutional, athletic, roster and climate data into one working
table, filters it along athletic, academic, geographic and climate axes, and
drafts AI-assisted recommendations and coach outreach emails.

Run 'scoutdeck serve' for the HTTP API or 'scoutdeck tui' for the terminal UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real env vars win either way.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal explorer",
	RunE:  runTUI,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print working-table summary statistics",
	RunE:  runStats,
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode [zip]",
	Short: "Resolve a US zip code to coordinates",
	Args:  cobra.ExactArgs(1),
	RunE:  runGeocode,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "scoutdeck.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, tuiCmd, statsCmd, geocodeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openSource() (*dataset.Source, error) {
	return dataset.NewSource(cfg.Data.Dir, dataset.DefaultFiles(), logger)
}

// buildEngine wires the configured completion backend, or returns nil when
// no API key is set.
func buildEngine(ctx context.Context) (*recommend.Engine, error) {
	if cfg.LLM.APIKey == "" {
		logger.Info("no LLM API key configured, AI features disabled")
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var client llm.Client
	switch cfg.LLM.Provider {
	case "gemini":
		c, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		client = llm.NewOpenAIClientWithConfig(llm.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.GetLLMTimeout(),
		})
	}
	return recommend.NewEngine(client, logger), nil
}

func newGeocoder() *geo.Geocoder {
	return geo.NewGeocoder(geo.GeocoderConfig{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.GetGeocoderTimeout(),
	}, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := openSource()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	if cfg.Data.Watch {
		if err := source.Watch(ctx); err != nil {
			logger.Warn("data watcher unavailable", zap.Error(err))
		} else {
			defer source.Stop()
		}
	}

	st, err := store.Open(cfg.Store.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	engine, err := buildEngine(ctx)
	if err != nil {
		return err
	}

	srv := server.New(source, st, engine, newGeocoder(), logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving HTTP API",
			zap.String("addr", cfg.Server.Addr),
			zap.Int("schools", source.Table().Len()))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	source, err := openSource()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	st, err := store.Open(cfg.Store.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	engine, err := buildEngine(ctx)
	if err != nil {
		return err
	}

	return ui.Run(source, st, engine, logger)
}

func runStats(cmd *cobra.Command, args []string) error {
	source, err := openSource()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	t := source.Table()

	counts := map[int]int{}
	var ranked, withTeam int
	for _, s := range t.Schools {
		counts[s.Division]++
		if s.USNewsRank == s.USNewsRank {
			ranked++
		}
		if s.PrevTeamID != 0 {
			withTeam++
		}
	}

	var improving, declining int
	for _, s := range t.Schools {
		if s.PrevTeamID == 0 {
			continue
		}
		switch metrics.WinTrajectory(t.TeamSeasons(s.PrevTeamID)).Trend {
		case metrics.TrendImproving:
			improving++
		case metrics.TrendDeclining:
			declining++
		}
	}

	out := map[string]any{
		"schools":         t.Len(),
		"by_division":     map[string]int{"d1": counts[1], "d2": counts[2], "d3": counts[3]},
		"conferences":     len(t.Conferences()),
		"ranked":          ranked,
		"with_team_data":  withTeam,
		"trend_improving": improving,
		"trend_declining": declining,
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runGeocode(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetGeocoderTimeout())
	defer cancel()

	point, ok := newGeocoder().ResolveZip(ctx, args[0])
	if !ok {
		return fmt.Errorf("could not resolve zip code %q", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.5f, %.5f\n", point.Lat, point.Lon)

	// Show how many programs fall inside common radii.
	source, err := openSource()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	for _, radius := range []float64{100, 250, 500} {
		rows := filter.Evaluate(source.Table(), filter.State{
			Home:             &point,
			MaxDistanceMiles: radius,
		})
		fmt.Fprintf(cmd.OutOrStdout(), "within %4.0f miles: %d programs\n", radius, len(rows))
	}
	return nil
}
