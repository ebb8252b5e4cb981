package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"loanscore/config"
	"loanscore/logging"
	"loanscore/ml"
	"loanscore/scoring"
)

var (
	name    = "loanscore"
	version = "v0.0.1-default"
	commit  = ""

	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   fmt.Sprintf("Path to the YAML config file (optional, defaults to %s)", config.DefaultPath),
		Sources: cli.EnvVars(config.PathEnvVar),
	}

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	modelFlag = &cli.StringFlag{
		Name:  "model",
		Usage: "Path to the model artifact (overrides model.path)",
	}

	modelTypeFlag = &cli.StringFlag{
		Name:  "model-type",
		Usage: fmt.Sprintf("Artifact format [%s, %s] (overrides model.type)", ml.ModelTypeCatBoostJSON, ml.ModelTypeTreeEnsemble),
	}
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            name,
		Version:         fmt.Sprintf("%s (commit: %s)", version, commit),
		Usage:           "Loan default prediction service",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			configFlag,
			debugFlag,
		},
		Commands: []*cli.Command{
			serveCmd,
			predictCmd,
			schemaCmd,
		},
	}
}

// overrides are the command line settings that win over the config file.
type overrides struct {
	debug     bool
	model     string
	modelType string
	port      int
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	return resolveConfig(cmd.String(configFlag.Name), overrides{
		debug:     cmd.Bool(debugFlag.Name),
		model:     cmd.String(modelFlag.Name),
		modelType: cmd.String(modelTypeFlag.Name),
		port:      cmd.Int(portFlag.Name),
	})
}

// resolveConfig validates only after the overrides are applied, so a flag
// can repair a bad file setting.
func resolveConfig(path string, o overrides) (*config.Config, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.debug {
		cfg.Log.Level = "debug"
	}
	if o.model != "" {
		cfg.Model.Path = o.model
	}
	if o.modelType != "" {
		cfg.Model.Type = o.modelType
	}
	if o.port > 0 {
		cfg.Http.Port = o.port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newService loads the artifact and checks it against the configured schema.
func newService(cfg *config.Config, logger *zap.Logger, opts ...ml.PredictorOption) (*scoring.Service, error) {
	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}

	opts = append([]ml.PredictorOption{
		ml.WithThreshold(cfg.Model.Threshold),
		ml.WithLogger(logger),
	}, opts...)
	predictor, err := ml.LoadPredictor(cfg.Model.Type, cfg.Model.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	logger.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.String("type", cfg.Model.Type),
		zap.String("digest", predictor.Digest()),
		zap.Int("features", predictor.Arity()))

	service, err := scoring.NewService(schema, predictor, scoring.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("model %s does not match the encoder: %w", cfg.Model.Path, err)
	}
	return service, nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logging.New(cfg.Log).With(zap.String("app", name))
}
