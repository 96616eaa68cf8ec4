package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"assignsim/formatter"
	"assignsim/httpapi"
	"assignsim/metrics"
	"assignsim/parser"
	"assignsim/policy"
	"assignsim/sim"
)

func main() {
	// Define flags
	scenario := flag.String("scenario", "", "Scenario CSV file (required unless -addr is set)")
	format := flag.String("format", "text", "Output format: text|json|csv")
	addr := flag.String("addr", "", "Address to serve the decision API (e.g., :8080)")
	maxSteps := flag.Int("max-steps", 0, "Maximum decision steps per episode (0 = default)")
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	wait := flag.Bool("wait", false, "Keep process running after completion to allow for metric scraping")
	debug := flag.Bool("debug", false, "Log every decision step")

	// Parse command-line flags
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Start metrics server if address provided
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			log.Info().Str("addr", *metricsAddr).Msg("metrics server listening")
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	heuristic := policy.Heuristic{}

	// Serve the decision API when an address is given; the scenario
	// runner is optional in that mode.
	if *addr != "" {
		srv := &http.Server{Addr: *addr, Handler: httpapi.NewRouter(heuristic)}
		go func() {
			log.Info().Str("addr", *addr).Msg("decision API listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("decision API server")
			}
		}()

		if *scenario == "" {
			waitForInterrupt()
			return
		}
	}

	// Validate required input flag
	if *scenario == "" {
		fmt.Println("Error: -scenario flag is required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Validate format enum
	validFormats := map[string]bool{"text": true, "json": true, "csv": true}
	if !validFormats[*format] {
		fmt.Printf("Error: format must be one of: text, json, csv (got: %s)\n", *format)
		os.Exit(1)
	}

	// Open scenario file
	file, err := os.Open(*scenario)
	if err != nil {
		fmt.Printf("Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	sc, err := parser.Parse(file)
	if err != nil {
		fmt.Printf("Error parsing scenario: %v\n", err)
		os.Exit(1)
	}

	runner := &sim.Runner{Policy: heuristic, MaxSteps: *maxSteps}
	result := runner.Run(sc)

	// Output based on format
	switch *format {
	case "json":
		fmt.Print(formatter.FormatJSON(result))
	case "csv":
		fmt.Print(formatter.FormatCSV(result))
	default: // "text"
		fmt.Print(formatter.FormatText(result))
	}

	// Handle metrics pushing or waiting
	if *pushGateway != "" {
		jobName := "assignsim"
		if err := push.New(*pushGateway, jobName).Gatherer(metrics.Registry).Push(); err != nil {
			fmt.Fprintf(os.Stderr, "Error pushing to Pushgateway: %v\n", err)
		} else {
			fmt.Println("\nMetrics successfully pushed to Pushgateway")
		}
	}

	if *wait && (*metricsAddr != "" || *addr != "") {
		waitForInterrupt()
	} else if *metricsAddr != "" && *pushGateway == "" {
		// Small delay to allow final scrape if not waiting explicitly
		// but typically batch jobs should use pushgateway or wait
		time.Sleep(100 * time.Millisecond)
	}
}

func waitForInterrupt() {
	fmt.Println("\nProcess kept alive. Press Ctrl+C to exit.")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	fmt.Println("\nExiting...")
}
