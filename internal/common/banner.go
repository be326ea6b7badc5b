package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner.
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("TRAILBLAZER")
	b.PrintCenteredText("Documentation Ingestion and Retrieval Pipeline")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", BuildTime, 15)
	b.PrintKeyValue("Environment", config.Environment, 15)
	b.PrintKeyValue("Work Root", config.WorkRoot, 15)
	b.PrintKeyValue("Postgres", redactDSN(config.Postgres.DSN), 15)
	b.PrintKeyValue("Provider", config.Provider.Name, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", BuildTime).
		Str("environment", config.Environment).
		Str("work_root", config.WorkRoot).
		Str("provider", config.Provider.Name).
		Msg("trailblazer started")

	logFilePath := ""
	if loggerWithPath, ok := interface{}(logger).(interface{ GetLogFilePath() string }); ok {
		logFilePath = loggerWithPath.GetLogFilePath()
		if logFilePath != "" {
			fmt.Printf("   • Log File: %s\n", logFilePath)
		}
	}

	logger.Info().
		Str("log_file", logFilePath).
		Str("claim_ttl", config.Coordination.ClaimTTL).
		Int("workers", config.Coordination.Workers).
		Str("confluence_base_url", config.Confluence.BaseURL).
		Str("dita_root_dir", config.Dita.RootDir).
		Msg("configuration loaded")

	printCapabilities(config, logger)
	fmt.Printf("\n")
}

// printCapabilities displays which source adapters and the retrieval
// tuning currently in effect.
func printCapabilities(config *Config, logger arbor.ILogger) {
	fmt.Printf("Sources:\n")

	enabledSources := []string{}
	if config.Confluence.BaseURL != "" {
		fmt.Printf("   • Confluence Cloud (%d spaces)\n", len(config.Confluence.Spaces))
		enabledSources = append(enabledSources, "confluence")
	}
	if config.Dita.RootDir != "" {
		fmt.Printf("   • DITA XML (%s)\n", config.Dita.RootDir)
		enabledSources = append(enabledSources, "dita")
	}
	if len(enabledSources) == 0 {
		fmt.Printf("   • No sources configured\n")
	}

	fmt.Printf("   • Hybrid retrieval: top-%d dense, top-%d lexical, RRF k=%d\n",
		config.Retrieve.TopKDense, config.Retrieve.TopKBm25, config.Retrieve.RRFK)

	logger.Info().
		Strs("enabled_sources", enabledSources).
		Int("topk_dense", config.Retrieve.TopKDense).
		Int("topk_bm25", config.Retrieve.TopKBm25).
		Msg("capabilities")
}

// redactDSN hides a DSN's credentials portion when printing it to the
// startup banner.
func redactDSN(dsn string) string {
	at := -1
	for i, c := range dsn {
		if c == '@' {
			at = i
		}
	}
	if at == -1 {
		return dsn
	}
	scheme := -1
	for i := 0; i+2 < len(dsn); i++ {
		if dsn[i] == ':' && dsn[i+1] == '/' && dsn[i+2] == '/' {
			scheme = i + 3
			break
		}
	}
	if scheme == -1 || scheme >= at {
		return dsn
	}
	return dsn[:scheme] + "***@" + dsn[at+1:]
}

// PrintShutdownBanner displays the application shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("TRAILBLAZER")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("trailblazer shutting down")
}

// PrintColorizedMessage prints a message with specified color. It does not
// log; the logger parameter is unused.
func PrintColorizedMessage(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green and logs it.
func PrintSuccess(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("✓ %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints an error message in red and logs it.
func PrintError(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("✗ %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints a warning message in yellow and logs it.
func PrintWarning(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("⚠ %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints an info message in cyan and logs it.
func PrintInfo(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("ℹ %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}
