package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/fairness-check/internal/config"
	"github.com/ogulcanaydogan/fairness-check/internal/dataset"
	"github.com/ogulcanaydogan/fairness-check/internal/engine"
	"github.com/ogulcanaydogan/fairness-check/internal/gateway"
	"github.com/ogulcanaydogan/fairness-check/internal/mockserver"
	"github.com/ogulcanaydogan/fairness-check/internal/report"
	"github.com/ogulcanaydogan/fairness-check/internal/verdict"
)

const version = "0.2.0"

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func (e cliError) Unwrap() error { return e.err }

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, ce.err)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var newPredictor = func(cfg config.EndpointConfig) gateway.Predictor {
	return gateway.New(cfg)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fairness-check",
		Short:         "Group fairness evaluation for binary classifier endpoints",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReportCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newInitCommand())
	root.AddCommand(newMockServerCommand())
	return root
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a configuration file without calling the classifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return exitError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration file '%s' is valid\n", args[0])
			fmt.Fprintf(out, "  Endpoint: %s %s\n", cfg.Endpoint.Method, cfg.Endpoint.URL)
			fmt.Fprintf(out, "  Test dataset: %s\n", cfg.Dataset.Path)
			return nil
		},
	}
}

func newReportCommand() *cobra.Command {
	var verbose bool
	var format, outPath, envFile string
	var concurrency int
	cmd := &cobra.Command{
		Use:   "report <config>",
		Short: "Score the dataset against the classifier and report fairness metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "md":
			default:
				return fmt.Errorf("unsupported format %s", format)
			}
			log := newLogger(cmd.ErrOrStderr(), verbose)

			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return cliError{code: verdict.ExitConfigError, err: fmt.Errorf("load env file %s: %w", envFile, err)}
				}
			}
			cfg, err := config.Load(args[0])
			if err != nil {
				return exitError(err)
			}
			if cmd.Flags().Changed("concurrency") {
				if concurrency < 1 {
					return cliError{code: verdict.ExitConfigError, err: fmt.Errorf("--concurrency must be at least 1, got %d", concurrency)}
				}
				cfg.Execution.Concurrency = concurrency
			}
			log.WithField("config", args[0]).Info("generating fairness report")

			rows, err := dataset.Load(cfg.Dataset)
			if err != nil {
				return exitError(err)
			}
			log.WithFields(logrus.Fields{"rows": len(rows), "groups": len(dataset.Groups(rows))}).Info("loaded dataset")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, runErr := engine.Run(ctx, rows, newPredictor(cfg.Endpoint), engine.Options{
				Thresholds:     cfg.Thresholds(),
				Concurrency:    cfg.Execution.Concurrency,
				MaxFailureRate: cfg.MaxFailureRate(),
				ProgressEvery:  10,
				Logger:         log,
			})
			partial := errors.Is(runErr, engine.ErrInterrupted) && rep.TotalRows > 0
			if runErr != nil && !partial {
				return exitError(runErr)
			}

			code := verdict.ExitCode(rep)
			if partial {
				code = verdict.ExitInterrupted
			}
			doc, err := report.NewDocument(cfg.Endpoint.URL, cfg.Dataset.Path, code, rep, time.Now())
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), doc, format, outPath); err != nil {
				return err
			}

			if partial {
				return cliError{code: code, err: runErr}
			}
			if !rep.Passed {
				return cliError{code: code, err: errors.New("fairness thresholds exceeded")}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log progress and per-row failures")
	cmd.Flags().StringVar(&format, "format", "text", "report output (text|json|md)")
	cmd.Flags().StringVar(&outPath, "out", "", "report file path for json or md")
	cmd.Flags().IntVar(&concurrency, "concurrency", config.DefaultConcurrency, "parallel classifier requests (overrides execution.concurrency)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file loaded before the configuration")
	return cmd
}

func newInitCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter fairness configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fileExists(outPath) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, leaving it untouched\n", outPath)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(config.StarterYAML), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "fairness.yaml", "configuration path")
	return cmd
}

func newMockServerCommand() *cobra.Command {
	var port int
	var seed int64
	var verbose bool
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve a disposable mock classifier for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gin.SetMode(gin.ReleaseMode)
			log := newLogger(cmd.ErrOrStderr(), true)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mockserver.New(seed, log).Run(ctx, fmt.Sprintf(":%d", port))
		},
	}
	cmd.Flags().IntVar(&port, "port", 8000, "listen port")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for predictions (0 = time based)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log every request")
	return cmd
}

func render(w io.Writer, doc report.Document, format, outPath string) error {
	fmt.Fprint(w, report.BuildText(doc))
	switch format {
	case "json":
		if outPath == "" {
			outPath = "fairness_report.json"
		}
		if err := report.WriteJSON(outPath, doc); err != nil {
			return err
		}
	case "md":
		if outPath == "" {
			outPath = "fairness_report.md"
		}
		if err := report.WriteMarkdown(outPath, doc); err != nil {
			return err
		}
	default:
		return nil
	}
	fmt.Fprintln(w, outPath)
	return nil
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// exitError maps a failure to its documented exit status.
func exitError(err error) error {
	code := 1
	switch {
	case errors.Is(err, config.ErrInvalid):
		code = verdict.ExitConfigError
	case errors.Is(err, dataset.ErrDataset), errors.Is(err, engine.ErrNoRows):
		code = verdict.ExitDatasetError
	case errors.Is(err, engine.ErrTotalFailure):
		code = verdict.ExitTotalFailure
	case errors.Is(err, engine.ErrInterrupted), errors.Is(err, context.Canceled):
		code = verdict.ExitInterrupted
	}
	return cliError{code: code, err: err}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
