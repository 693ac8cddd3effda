package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/respira-diag/fuzzydx/internal/diagnosis"
	"github.com/respira-diag/fuzzydx/internal/knowledge"
	"github.com/respira-diag/fuzzydx/internal/shared/config"
	"github.com/respira-diag/fuzzydx/internal/shared/logging"
)

// rootOptions are the persistent flags; each one overrides its environment variable.
type rootOptions struct {
	source     string
	membership string
	rules      string
	outputs    string
	bundle     string
	logLevel   string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "fuzzyctl",
		Short:        "Fuzzy respiratory diagnosis from the command line",
		Long:         "fuzzyctl ranks likely respiratory diseases from symptom severities using the same knowledge base as the fuzzydiag service.",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.source, "source", "", "knowledge source: csv, yaml, postgres or sqlserver (overrides KNOWLEDGE_SOURCE)")
	pf.StringVar(&opts.membership, "membership", "", "membership table CSV")
	pf.StringVar(&opts.rules, "rules", "", "rule table CSV")
	pf.StringVar(&opts.outputs, "outputs", "", "output membership table CSV")
	pf.StringVar(&opts.bundle, "bundle", "", "YAML knowledge bundle")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	pf.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text")

	cmd.AddCommand(newDiagnoseCmd(opts))
	cmd.AddCommand(newSymptomsCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))

	return cmd
}

func (o *rootOptions) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if o.source != "" {
		cfg.Knowledge.Source = o.source
	}
	if o.membership != "" {
		cfg.Knowledge.MembershipPath = o.membership
	}
	if o.rules != "" {
		cfg.Knowledge.RulesPath = o.rules
	}
	if o.outputs != "" {
		cfg.Knowledge.OutputsPath = o.outputs
	}
	if o.bundle != "" {
		cfg.Knowledge.BundlePath = o.bundle
		if o.source == "" {
			cfg.Knowledge.Source = "yaml"
		}
	}
	cfg.Log.Level = o.logLevel
	cfg.Log.Format = "text"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is a loaded knowledge base plus the service that queries it.
type session struct {
	cfg     *config.Config
	log     *logrus.Logger
	store   *knowledge.Store
	service *diagnosis.Service
	close   func()
}

// open loads the knowledge base and wires a diagnosis service over it.
func (o *rootOptions) open(ctx context.Context) (*session, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	log := logging.NewWithWriter(cfg.Log, os.Stderr)

	opts, err := diagnosis.OptionsFromConfig(cfg.Inference)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	source, closeSource, err := knowledge.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store := knowledge.NewStore(source, log)
	if _, err := store.Reload(ctx); err != nil {
		closeSource()
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	return &session{
		cfg:     cfg,
		log:     log,
		store:   store,
		service: diagnosis.NewService(store, opts, log),
		close:   closeSource,
	}, nil
}
