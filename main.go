package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alexflint/go-arg"
)

type Args struct {
	ConfigPath       string `arg:"positional" default:"config.yaml" help:"Path to the configuration YAML file. By default is used 'config.yaml' path."`
	Processor        string `arg:"-p,--processor" help:"Name of the configured processor. May be omitted when only one processor is configured."`
	File             string `arg:"-f,--file" help:"Statement file to process. By default the newest file in the processor 'extractionFolder'."`
	Answers          string `arg:"-a,--answers" help:"File with operator answers, one per line, instead of the terminal."`
	ReprocessSkipped bool   `arg:"--reprocess-skipped" help:"Ask again about transactions skipped in earlier runs."`
	Verbose          bool   `arg:"-v,--verbose" help:"Log details of every row."`
}

// Version is application version string and should be updated with `go build -ldflags`.
var Version = "development"

func (Args) Version() string {
	return Version
}

func (Args) Description() string {
	return "AM-Statement-Ledger imports bank statement spreadsheets into a local ledger, " +
		"asking you to classify new transactions."
}

// parseArgs parses command line. Returns true when help or version was printed and the
// program should exit.
func parseArgs(osArgs []string, stdout io.Writer) (Args, bool, error) {
	var args Args
	p, err := arg.NewParser(arg.Config{Program: "am-statement-ledger"}, &args)
	if err != nil {
		return args, false, fmt.Errorf("error creating argument parser: %w", err)
	}
	err = p.Parse(osArgs)
	switch {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(stdout)
		return args, true, nil
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(stdout, Version)
		return args, true, nil
	case err != nil:
		return args, false, fmt.Errorf("error parsing arguments: %w", err)
	}
	return args, false, nil
}

func main() {
	args, exit, err := parseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if exit {
		return
	}

	logger := newLogger(os.Stderr, args.Verbose)
	logger.Info().Str("version", Version).Msg("Starting")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = withLogger(ctx, logger)

	if err := runApplication(ctx, args, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("Failed")
		os.Exit(1)
	}
}

// runApplication processes one statement file according to args.
func runApplication(ctx context.Context, args Args, stdout io.Writer) error {
	logger := loggerFrom(ctx)

	configPath, err := getAbsolutePath(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("can't find configuration file '%s': %w", args.ConfigPath, err)
	}
	config, err := readConfig(configPath)
	if err != nil {
		return fmt.Errorf("configuration file '%s' is wrong: %w", configPath, err)
	}
	for _, warning := range config.Warnings {
		logger.Warn().Msg(warning)
	}
	processor, err := config.processor(args.Processor)
	if err != nil {
		return err
	}

	var answerer Answerer
	switch {
	case args.Answers != "":
		scripted, closer, err := newScriptAnswerer(args.Answers, stdout)
		if err != nil {
			return err
		}
		defer closer.Close()
		answerer = scripted
	case isInteractiveInput():
		answerer = newTerminalAnswerer(stdout)
	default:
		return errors.New("stdin is not a terminal, provide operator answers with --answers")
	}

	path := args.File
	if path == "" {
		if processor.ExtractionFolder == "" {
			return fmt.Errorf("no --file given and processor '%s' has no 'extractionFolder'", processor.Profile.Kind)
		}
		files, err := findStatementFiles(processor.ExtractionFolder, processor.Profile.Extensions)
		if err != nil {
			return err
		}
		if path, err = chooseStatementFile(ctx, answerer, processor.ExtractionFolder, files); err != nil {
			return err
		}
	}
	if path, err = getAbsolutePath(path); err != nil {
		return fmt.Errorf("can't find statement file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(config.DatabasePath), 0755); err != nil {
		return fmt.Errorf("can't create database folder: %w", err)
	}
	store, err := openStore(config.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	categories, err := loadCategoryList(config.CategoriesPath)
	if err != nil {
		return err
	}
	usedCategories, err := store.UsedCategories(ctx)
	if err != nil {
		return err
	}
	if err := categories.Merge(usedCategories); err != nil {
		return err
	}

	profile := processor.Profile
	ingestor := &Ingestor{
		Profile:         profile,
		Institution:     processor.Institution,
		InstitutionType: processor.InstitutionType,
		Store:           store,
		Source: RowSource{
			Profile:       profile,
			MaxSearchRows: config.Processing.HeaderSearchRows,
			MatchPercent:  config.Processing.HeaderMatchPercent,
		},
		Validator: TransactionValidator{Profile: profile},
		Normalizer: Normalizer{
			Profile:  profile,
			Location: config.Location,
			Currencies: CurrencyResolver{
				Profile:    profile,
				Currencies: processor.Currencies,
				Answerer:   answerer,
			},
		},
		Classifier: &Classifier{
			Processor:  profile.Kind,
			Patterns:   store,
			Categories: categories,
		},
		Answerer:         answerer,
		ReprocessSkipped: args.ReprocessSkipped || config.Processing.ReprocessSkippedTransactions,
	}
	logger.Info().Str("file", path).Str("processor", string(profile.Kind)).Msg("Processing file")
	report, err := ingestor.IngestFile(ctx, path)

	if report.File.ID != 0 {
		totals, totalsErr := store.CategoryTotals(context.WithoutCancel(ctx), report.File.ID)
		if totalsErr != nil {
			logger.Warn().Err(totalsErr).Msg("Can't sum categories")
		}
		DumpFileReport(report, totals, stdout)
	}
	return err
}
