package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	var (
		cfgFile   string
		logLevel  string
		logFormat string
	)

	v := viper.New()
	v.SetEnvPrefix("taskengine")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	rootCmd := &cobra.Command{
		Use:   "taskengine",
		Short: "A resizable worker pool and deadline scheduler, over HTTP",
		Long: `taskengine runs a resizable worker pool, a time-based task scheduler,
and the HTTP surface wired over both.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console or json)")
	bindPFlag(v, rootCmd.PersistentFlags(), "log_level", "log-level")
	bindPFlag(v, rootCmd.PersistentFlags(), "log_format", "log-format")

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd.Execute()
}

// bindPFlag binds a named pflag into v under key, swallowing the only error
// BindPFlag returns (a nil flag) since every caller here passes a flag name
// just registered a line above.
func bindPFlag(v *viper.Viper, flags *pflag.FlagSet, key, name string) {
	_ = v.BindPFlag(key, flags.Lookup(name))
}

func newLogger(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
