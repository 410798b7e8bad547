package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/statkit/pulse/config"
	"github.com/statkit/pulse/export"
	"github.com/statkit/pulse/stats"
)

var (
	serveConfigPath string
	serveListen     string
	serveDemo       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine with its HTTP stats endpoints",
	Long: `Serve runs the statistics engine until interrupted, publishing readings
on /metrics and /vars (plain text) and / (JSON). Channels and interests are
taken from the configuration file. With --demo, synthetic producers feed the
engine so the endpoints have something to show.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "f", "", "configuration file (YAML or JSON)")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "stats listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "generate synthetic load")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	fileCfg := &config.Config{}
	if serveConfigPath != "" {
		loaded, err := config.Load(serveConfigPath)
		if err != nil {
			return err
		}
		fileCfg = loaded
	}

	engineCfg, err := fileCfg.EngineConfig()
	if err != nil {
		return err
	}
	engineCfg.Logger = log

	engine, err := stats.New[string](engineCfg)
	if err != nil {
		return err
	}
	defer engine.Stop()

	for label, ch := range fileCfg.Channels {
		for _, ic := range ch.Interests {
			in, err := ic.Interest()
			if err != nil {
				return fmt.Errorf("channel %q: %w", label, err)
			}
			if err := engine.RegisterInterest(label, in); err != nil {
				return err
			}
		}
	}

	listen := fileCfg.HTTPListen
	if serveListen != "" {
		listen = serveListen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveDemo {
		startDemoProducers(ctx, engine, fileCfg)
	}

	if listen == "" {
		log.Warn("no http_listen configured, readings are not exported")
		<-ctx.Done()
		return nil
	}

	server := export.NewServer(listen, engine, log)
	errc := make(chan error, 1)
	go func() { errc <- server.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// startDemoProducers feeds every configured channel (or a default one) with
// synthetic latency samples until ctx is cancelled.
func startDemoProducers(ctx context.Context, engine *stats.Engine[string], cfg *config.Config) {
	labels := make([]string, 0, len(cfg.Channels))
	for label := range cfg.Channels {
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		labels = []string{"demo"}
		for _, in := range stats.DefaultPercentiles() {
			_ = engine.RegisterInterest("demo", in)
		}
		_ = engine.RegisterInterest("demo", stats.Interest{Kind: stats.Count})
		_ = engine.RegisterInterest("demo", stats.Interest{Kind: stats.Rate})
	}

	for _, label := range labels {
		go func(label string) {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			ticker := time.NewTicker(time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					engine.Record(label, syntheticLatency(rng))
				}
			}
		}(label)
	}
}
