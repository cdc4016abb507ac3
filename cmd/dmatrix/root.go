package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/dmatrix/internal/config"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

var version = "0.1.0"

// app carries what every subcommand needs after flags are parsed.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	out io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "dmatrix",
		Short: "Convert tables to training matrices and cross-validate on them",
		Long: `dmatrix reads CSV tables (or saved binary matrices), converts them to the
sparse training matrix format, and runs k-fold cross-validation of a linear booster.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-console", false, "Human readable log output instead of JSON")

	root.AddCommand(a.versionCmd(), a.convertCmd(), a.infoCmd(), a.cvCmd())
	return root
}

// addDataFlags registers the flags overriding the data section of the config.
func addDataFlags(fs *pflag.FlagSet) {
	fs.String("data", "", "Input CSV file or saved matrix")
	fs.String("label", "", "CSV column used as label")
	fs.String("weight", "", "CSV column used as row weight")
	fs.StringSlice("categorical", nil, "CSV columns read as categorical")
	fs.Bool("enable-categorical", false, "Accept categorical columns")
	fs.Float64("missing", 0, "Value treated as missing in addition to NaN")
	fs.String("comma", "", "CSV field delimiter")
}

func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.v.SetEnvPrefix("DMATRIX")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.InheritedFlags()} {
		if err := a.v.BindPFlags(fs); err != nil {
			return errors.Wrap(err, "binding flags")
		}
	}

	cfg := config.Default()
	if path := a.v.GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	if a.v.IsSet("log-level") {
		cfg.Log.Level = a.v.GetString("log-level")
	}
	if a.v.IsSet("log-console") {
		cfg.Log.Console = a.v.GetBool("log-console")
	}
	a.applyDataFlags(&cfg.Data)
	a.cfg = cfg
	return setupLogger(cfg.Log)
}

func setupLogger(c config.LogConfig) error {
	if !c.Console {
		return log.SetupLogger(c.Level)
	}
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	l := log.NewConsoleLogger(os.Stderr, lvl)
	log.SetLogger(l)
	errors.SetZerologWarnFunc(func(w error) { l.Warn(w.Error()) })
	return nil
}

func (a *app) applyDataFlags(d *config.DataConfig) {
	if a.v.IsSet("data") {
		d.Path = a.v.GetString("data")
	}
	if a.v.IsSet("label") {
		d.Label = a.v.GetString("label")
	}
	if a.v.IsSet("weight") {
		d.Weight = a.v.GetString("weight")
	}
	if a.v.IsSet("categorical") {
		d.Categorical = a.v.GetStringSlice("categorical")
	}
	if a.v.IsSet("enable-categorical") {
		d.EnableCategorical = a.v.GetBool("enable-categorical")
	}
	if a.v.IsSet("missing") {
		m := a.v.GetFloat64("missing")
		d.Missing = &m
	}
	if a.v.IsSet("comma") {
		d.Comma = a.v.GetString("comma")
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "dmatrix v%s\n", version)
			fmt.Fprintf(a.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
