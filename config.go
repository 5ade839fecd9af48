/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Seednode/papayoo/papayoo"
	"github.com/Seednode/papayoo/storage"
)

type Config struct {
	bind           string
	database       string
	port           int
	prefix         string
	profile        bool
	roundTotal     string
	sessionTimeout time.Duration
	storage        string
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	roundMode papayoo.RoundTotalMode
	logger    *zap.SugaredLogger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.storage != storage.BackendMemory && c.storage != storage.BackendSQLite {
		return fmt.Errorf("invalid storage backend (must be %q or %q): %q", storage.BackendMemory, storage.BackendSQLite, c.storage)
	}
	if c.storage == storage.BackendSQLite && c.database == "" {
		return errors.New("--database is required when --storage=sqlite")
	}

	mode, err := papayoo.ParseRoundTotalMode(c.roundTotal)
	if err != nil {
		return err
	}
	c.roundMode = mode

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// bindEnv lets PAPAYOO_* environment variables fill in any flag not set on
// the command line.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PAPAYOO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "papayoo",
		Short:         "A score keeper for the Papayoo card game, served as a small webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindEnv(v, cmd.Flags())

			if err := cfg.validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			cfg.logger = logger

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ServePage(cmd.Context(), cfg, args)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cfg.logger != nil {
				_ = cfg.logger.Sync()
			}
		},
	}

	normalize := func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	}

	pfs := cmd.PersistentFlags()
	pfs.SetNormalizeFunc(normalize)
	pfs.StringVar(&cfg.database, "database", "papayoo.db", "path to sqlite database (env: PAPAYOO_DATABASE)")
	pfs.StringVar(&cfg.roundTotal, "round-total", string(papayoo.TotalNominal), "expected round total: \"nominal\" (250 per deck) or \"pool\" (sum of all cards) (env: PAPAYOO_ROUND_TOTAL)")
	pfs.StringVar(&cfg.storage, "storage", storage.BackendSQLite, "storage backend: \"memory\" or \"sqlite\" (env: PAPAYOO_STORAGE)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PAPAYOO_VERBOSE)")

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PAPAYOO_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PAPAYOO_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PAPAYOO_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PAPAYOO_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle live tables are closed (env: PAPAYOO_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PAPAYOO_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PAPAYOO_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PAPAYOO_VERSION)")

	cmd.AddCommand(newGamesCmd(cfg), newRankingCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("papayoo v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
