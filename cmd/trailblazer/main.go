package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/common"
)

// configPaths is a custom flag type allowing multiple -config flags,
// later files overriding earlier ones.
type configPaths []string

func (c *configPaths) String() string { return fmt.Sprintf("%v", *c) }

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("trailblazer version %s\n", common.GetVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	verb := args[0]
	verbArgs := args[1:]

	// Startup sequence (REQUIRED ORDER), same as the teacher's server
	// entrypoint: load config (defaults -> file(s) -> env), init logger,
	// print banner, then dispatch.
	if len(configFiles) == 0 {
		if _, err := os.Stat("trailblazer.toml"); err == nil {
			configFiles = append(configFiles, "trailblazer.toml")
		} else if _, err := os.Stat("deployments/local/trailblazer.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/trailblazer.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	logger = common.SetupLogger(config)

	if verb != "version" {
		common.PrintBanner(config, logger)
	}

	runner, ok := verbs[verb]
	if !ok {
		logger.Error().Str("verb", verb).Msg("unknown verb")
		printUsage()
		os.Exit(1)
	}

	if err := runner(verbArgs); err != nil {
		logger.Fatal().Err(err).Str("verb", verb).Msg("command failed")
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage: trailblazer [-config path]... <verb> [args]\n\nverbs:\n")
	for _, v := range verbOrder {
		fmt.Fprintf(os.Stderr, "  %s\n", v)
	}
}
