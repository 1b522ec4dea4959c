package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/henrytill/bitcomp-go/internal"
	"github.com/henrytill/bitcomp-go/internal/formatter"
	"github.com/henrytill/bitcomp-go/internal/schema"
)

var (
	Version    = "0.1.0-dev"
	Commit     = "unknown"
	CommitDate = "unknown"
	TreeState  = "unknown"
)

type Config struct {
	Schema       string
	InputFormat  internal.Format
	OutputFormat internal.Format
	OutputFile   string
	Mappings     string
	Info         bool
	Verbose      bool
	InputFile    string
}

func showVersion() {
	fmt.Printf("bitcomp %s (commit %s, %s, %s)\n", Version, Commit, CommitDate, TreeState)
}

func showUsage() {
	fmt.Printf("Usage: %s -s SCHEMA [OPTIONS] [FILE]\n\n", os.Args[0])
	fmt.Println("Pack records into composed words as described by a schema")
	fmt.Println("\nFILE may be - to read standard input (requires -f).")
	fmt.Println("\nOptions:")
	flag.PrintDefaults()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// defaultOutputFormat picks YAML for a terminal and JSON for pipes and files.
func defaultOutputFormat(config *Config, stdout io.Writer) internal.Format {
	if config.OutputFile != "" {
		return internal.JSON
	}
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return internal.YAML
	}
	return internal.JSON
}

func openInput(config *Config, stdin io.Reader) (io.ReadCloser, error) {
	if config.InputFile == "-" {
		return io.NopCloser(stdin), nil
	}
	if _, err := os.Stat(config.InputFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file does not exist: %s", config.InputFile)
	}
	return os.Open(config.InputFile)
}

func run(config *Config, stdin io.Reader, stdout io.Writer) (err error) {
	logger, err := newLogger(config.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	internal.SetLogger(logger)

	s, err := schema.Load(config.Schema)
	if err != nil {
		return err
	}
	codec, err := s.Compile()
	if err != nil {
		return err
	}
	logger.Debug("schema loaded",
		zap.String("name", s.Name),
		zap.Int("word", codec.Bits()),
		zap.Int("fields", len(s.Fields)))

	if config.Info {
		return formatter.WriteInfo(stdout, codec)
	}

	if config.InputFormat.Name == "" {
		if config.InputFile == "-" {
			return errors.New("reading standard input requires an input format (-f)")
		}
		format, ok := internal.DetectInputFormat(config.InputFile)
		if !ok {
			return fmt.Errorf("no parser for file: %s", config.InputFile)
		}
		config.InputFormat = format
	}
	if config.OutputFormat.Name == "" {
		config.OutputFormat = defaultOutputFormat(config, stdout)
	}

	input, err := openInput(config, stdin)
	if err != nil {
		return err
	}
	defer input.Close()

	rows, err := internal.Parse(config.InputFormat, input)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", config.InputFile, err)
	}

	if config.Mappings != "" {
		mappings, err := internal.LoadMappingsFromFile(config.Mappings)
		if err != nil {
			return err
		}
		if err := mappings.Apply(rows); err != nil {
			return err
		}
	}

	table, err := internal.Compose(codec, rows)
	if err != nil {
		return err
	}

	output := stdout
	if config.OutputFile != "" {
		file, createErr := os.Create(config.OutputFile)
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}
		defer func() {
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}
		}()
		output = file
	}

	return internal.Unparse(config.OutputFormat, output, table)
}

func main() {
	config := Config{
		InputFormat:  internal.Format{Capability: internal.CapInput},
		OutputFormat: internal.Format{Capability: internal.CapOutput},
	}
	var showVersionFlag bool

	flag.StringVar(&config.Schema, "s", "", "Schema file (yaml, json or markdown)")
	flag.StringVar(&config.Schema, "schema", "", "Schema file (yaml, json or markdown)")
	flag.Var(&config.InputFormat, "f", "Input format (json, yaml, html, xml)")
	flag.Var(&config.InputFormat, "from", "Input format (json, yaml, html, xml)")
	flag.Var(&config.OutputFormat, "t", "Output format (json, yaml, html)")
	flag.Var(&config.OutputFormat, "to", "Output format (json, yaml, html)")
	flag.StringVar(&config.OutputFile, "o", "", "Output file (defaults to stdout)")
	flag.StringVar(&config.Mappings, "mappings", "", "Read column to field mappings from FILE")
	flag.BoolVar(&config.Info, "info", false, "Show the schema layout and exit")
	flag.BoolVar(&config.Verbose, "v", false, "Log progress to stderr")
	flag.BoolVar(&showVersionFlag, "version", false, "Show version")
	flag.BoolVar(&showVersionFlag, "V", false, "Show version")

	flag.Usage = showUsage
	flag.Parse()

	if showVersionFlag {
		showVersion()
		return
	}

	if config.Schema == "" {
		fmt.Fprintf(os.Stderr, "Error: schema file required (-s)\n\n")
		showUsage()
		os.Exit(1)
	}

	args := flag.Args()
	switch {
	case len(args) == 1:
		config.InputFile = args[0]
	case len(args) > 1:
		fmt.Fprintf(os.Stderr, "Error: exactly one input file required, got %d\n\n", len(args))
		showUsage()
		os.Exit(1)
	case !config.Info:
		fmt.Fprintf(os.Stderr, "Error: input file required\n\n")
		showUsage()
		os.Exit(1)
	}

	if err := run(&config, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
