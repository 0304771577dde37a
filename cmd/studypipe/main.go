// Command studypipe runs the study-aid content pipeline.
//
// Usage:
//
//	studypipe process notes.pdf
//	studypipe analyze notes.pdf --operation study_guide --prompt "exam prep"
//	studypipe worker --inbox ./inbox --config config.yaml
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Process ProcessCmd `cmd:"" help:"Extract text, images and metadata from a file."`
	Analyze AnalyzeCmd `cmd:"" help:"Extract a file and run an AI analysis operation on it."`
	Worker  WorkerCmd  `cmd:"" help:"Run the background worker, watching an inbox directory."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("studypipe version %s\n", version)
	return nil
}

// loadConfig reads the config file, or returns defaults when no file is
// given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

// initLogger applies CLI flags over config file settings over defaults.
func initLogger(cli *CLI, cfg *config.Config) (func(), error) {
	levelStr := cli.LogLevel
	if levelStr == "" {
		levelStr = cfg.Logging.Level
	}
	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}

	format := cli.LogFormat
	if format == "" {
		format = cfg.Logging.Format
	}

	file := cli.LogFile
	if file == "" {
		file = cfg.Logging.File
	}

	output := os.Stderr
	cleanup := func() {}
	if file != "" {
		output, cleanup, err = logger.OpenLogFile(file)
		if err != nil {
			return nil, err
		}
	}

	logger.Init(level, output, format)
	return cleanup, nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("studypipe"),
		kong.Description("studypipe - asynchronous content ingestion and AI analysis for study material"),
		kong.UsageOnError(),
	)

	// version reports build info only; it must work with no config at all.
	if ctx.Command() == "version" {
		ctx.FatalIfErrorf(ctx.Run())
		return
	}

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	cleanup, err := initLogger(&cli, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}
