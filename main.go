// slack-pulse crawls a Slack workspace's message history and computes
// descriptive engagement metrics per channel and per user. Each run is a
// full re-crawl followed by a full recomputation; the two resulting metric
// documents are written as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// slackLogAdapter adapts zerolog to slack-go's log interface
type slackLogAdapter struct {
	logger zerolog.Logger
}

func (a *slackLogAdapter) Output(calldepth int, s string) error {
	a.logger.Debug().Msg(s)
	return nil
}

// runOnce performs one crawl + analyze + report cycle.
func runOnce(ctx context.Context, crawler *Crawler, analyzer *Analyzer, writer *ReportWriter) error {
	start := time.Now()

	snapshot, err := crawler.Crawl(ctx)
	if err != nil {
		return err
	}

	community := analyzer.CommunityMetrics(snapshot)
	users, err := analyzer.UserMetrics(snapshot)
	if err != nil {
		return err
	}

	if err := writer.WriteAll(community, users); err != nil {
		return err
	}

	log.Info().
		Int("channels", community.AllChannel.NumChannels).
		Int("users", len(users.Metrics)).
		Dur("elapsed", time.Since(start)).
		Msg("Run complete")

	return nil
}

func main() {
	// Set up command line flags
	logLevelStr := flag.String("log-level", "info", "Log level: trace, debug, info, warn, error, fatal, panic")
	outputDir := flag.String("output-dir", "", "Directory for metric reports (overrides OUTPUT_DIR)")
	schedule := flag.String("schedule", "", "Cron expression for repeated runs (default: run once and exit)")
	flag.Parse()

	// Set up zerolog
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	logLevel, err := zerolog.ParseLevel(*logLevelStr)
	if err != nil {
		logLevel = zerolog.InfoLevel
		fmt.Printf("Invalid log level '%s', defaulting to 'info'\n", *logLevelStr)
	}
	zerolog.SetGlobalLevel(logLevel)
	log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	log.Info().
		Str("outputDir", cfg.OutputDir).
		Int("historyLimit", cfg.HistoryLimit).
		Int("topN", cfg.TopN).
		Str("schedule", *schedule).
		Msg("Configuration loaded")

	// Create a logger adapter for slack-go
	slackLogger := &slackLogAdapter{
		logger: log.With().Str("component", "slack-api").Logger(),
	}
	client := slack.New(cfg.Token, slack.OptionLog(slackLogger))

	// Test the token before crawling anything
	log.Debug().Msg("Testing authentication with Slack")
	authTest, err := client.AuthTest()
	if err != nil {
		log.Fatal().Err(err).Msg("Authentication test failed")
	}
	log.Info().
		Str("user", authTest.User).
		Str("userID", authTest.UserID).
		Str("team", authTest.Team).
		Msg("Connected to Slack")

	crawler := NewCrawler(client, cfg.HistoryLimit)
	analyzer := NewAnalyzer(cfg)
	writer, err := NewReportWriter(cfg.OutputDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating report writer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *schedule == "" {
		if err := runOnce(ctx, crawler, analyzer, writer); err != nil {
			log.Fatal().Err(err).Msg("Run failed")
		}
		return
	}

	// Scheduled mode: re-crawl and recompute on every tick.
	c := cron.New()
	_, err = c.AddFunc(*schedule, func() {
		if err := runOnce(ctx, crawler, analyzer, writer); err != nil {
			log.Error().Err(err).Msg("Scheduled run failed")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", *schedule).Msg("Invalid cron schedule")
	}

	log.Info().Str("schedule", *schedule).Msg("Starting scheduled runs")
	c.Start()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	<-c.Stop().Done()
}
