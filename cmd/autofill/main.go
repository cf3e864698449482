package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/browser"
	"github.com/hanwei-dev/listing-autofill/internal/config"
	"github.com/hanwei-dev/listing-autofill/internal/extractor"
	"github.com/hanwei-dev/listing-autofill/internal/form"
	"github.com/hanwei-dev/listing-autofill/internal/mapping"
	"github.com/hanwei-dev/listing-autofill/internal/pipeline"
	"github.com/hanwei-dev/listing-autofill/internal/queue"
	"github.com/hanwei-dev/listing-autofill/internal/ratelimit"
)

func main() {
	var (
		asin        = flag.String("asin", "", "ASIN of the product to process")
		url         = flag.String("url", "", "Product page URL (overrides -asin)")
		batchFile   = flag.String("batch", "", "File with one ASIN or URL per line")
		rulesPath   = flag.String("rules", "", "Mapping rules file (overrides MAPPING_RULES_PATH)")
		formURL     = flag.String("form", "", "Destination form URL (overrides FORM_URL)")
		extractOnly = flag.Bool("extract-only", false, "Print the extracted record as JSON without filling the form")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if *rulesPath != "" {
		cfg.Mapping.RulesPath = *rulesPath
	}
	if *formURL != "" {
		cfg.Mapping.FormURL = *formURL
	}

	logLevel := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if *asin == "" && *url == "" && *batchFile == "" {
		fmt.Fprintln(os.Stderr, "one of -asin, -url or -batch is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	rules, err := mapping.Load(cfg.Mapping.RulesPath)
	if err != nil {
		logger.Error("failed to load mapping rules", "path", cfg.Mapping.RulesPath, "error", err)
		os.Exit(1)
	}

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	source := browser.NewPageSource(b, cfg.Browser.MaxRetries, logger)
	defer source.Close()

	var writer form.Writer = discardWriter{}
	if !*extractOnly {
		formPage, err := b.NewPage()
		if err != nil {
			logger.Error("failed to open form page", "error", err)
			os.Exit(1)
		}
		if cfg.Mapping.FormURL == "" {
			logger.Error("FORM_URL is required unless -extract-only is set")
			os.Exit(1)
		}
		if err := b.NavigateWithRetry(formPage, cfg.Mapping.FormURL, cfg.Browser.MaxRetries); err != nil {
			logger.Error("failed to open destination form", "url", cfg.Mapping.FormURL, "error", err)
			os.Exit(1)
		}
		writer = form.NewPageWriter(formPage, logger)
	}

	var exOpts []extractor.Option
	exOpts = append(exOpts, extractor.WithAuditSink(audit.NewLogSink(logger)))
	exOpts = append(exOpts, extractor.WithDefaultWeight(cfg.Mapping.DefaultWeightLb))
	if cfg.Mapping.ConvertDimensionsToCM {
		exOpts = append(exOpts, extractor.WithMetricDimensions())
	}

	p := pipeline.New(
		source,
		extractor.New(logger, exOpts...),
		rules,
		form.NewProjector(writer, logger, audit.NewLogSink(logger)),
		logger,
		pipeline.WithLimiter(ratelimit.NewPacer(cfg.RateLimit.MinDelay, cfg.RateLimit.MaxDelay)),
	)

	jobs, err := collectJobs(*asin, *url, *batchFile)
	if err != nil {
		logger.Error("failed to read batch file", "error", err)
		os.Exit(1)
	}

	exitCode := 0
	for _, job := range jobs {
		result := p.Process(ctx, job)
		if result.Err != nil {
			logger.Error("run failed", "asin", job.ASIN, "error", result.Err)
			exitCode = 1
			continue
		}
		if *extractOnly {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result.Record); err != nil {
				logger.Error("failed to encode record", "error", err)
				exitCode = 1
			}
			continue
		}
		fmt.Printf("%s: filled %d, failed %d, skipped %d\n",
			result.ASIN, result.Stats.Filled, result.Stats.Failed, result.Stats.Skipped)
	}
	os.Exit(exitCode)
}

// collectJobs builds the job list from the flags. Batch lines holding a
// URL become URL jobs; everything else is treated as an ASIN.
func collectJobs(asin, url, batchFile string) ([]*queue.Job, error) {
	var jobs []*queue.Job
	if asin != "" || url != "" {
		jobs = append(jobs, queue.NewJob(asin, url))
	}
	if batchFile == "" {
		return jobs, nil
	}

	f, err := os.Open(batchFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			jobs = append(jobs, queue.NewJob("", line))
		} else {
			jobs = append(jobs, queue.NewJob(line, ""))
		}
	}
	return jobs, scanner.Err()
}

// discardWriter stands in for the form when only extraction was asked
// for.
type discardWriter struct{}

func (discardWriter) Fill(context.Context, string, string) error { return nil }

func (discardWriter) Inspect(context.Context) ([]form.Field, error) { return nil, nil }
