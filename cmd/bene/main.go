// Command bene inspects ePub 3 publications: renditions, assets,
// navigation, chapters, covers, annotations, and CFI expressions.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	epub "github.com/simp-lee/bene"
)

const envPrefix = "BENE"

var (
	cfgFile   string
	configErr error
	logger    = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:           "bene",
		Short:         "bene reads ePub 3 publications",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configErr != nil {
				return configErr
			}
			l, err := newLogger(viper.GetString("log-level"), viper.GetString("log-file"))
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml, or json)")
	flags.String("log-level", "warn", "log level: debug, info, warn, or error")
	flags.String("log-file", "", "also write JSON logs to this file, rotated")
	flags.Int("concurrency", 0, "renditions loaded in parallel (0 = all)")
	flags.String("stylesheet", "content.css", "stylesheet linked into XHTML assets")
	for _, name := range []string{"log-level", "log-file", "concurrency", "stylesheet"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		renditionsCmd(),
		assetCmd(),
		tocCmd(),
		chaptersCmd(),
		textCmd(),
		coverCmd(),
		annotationsCmd(),
		cfiCmd(),
	)
}

// initConfig reads the config file, if any, and BENE_* environment
// variables such as BENE_LOG_LEVEL. A config read failure is kept in
// configErr and returned before the command runs.
func initConfig() {
	configErr = nil
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		configErr = errors.Wrapf(err, "reading config %s", cfgFile)
	}
}

func newLogger(level, file string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	encodeConfig := zap.NewProductionEncoderConfig()
	encodeConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encodeConfig), zapcore.Lock(os.Stderr), lvl),
	}
	if file != "" {
		rotation := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encodeConfig), zapcore.AddSync(rotation), lvl))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// bookOptions turns the configuration into library options.
func bookOptions() []epub.Option {
	return []epub.Option{
		epub.WithLogger(logger),
		epub.WithConcurrency(viper.GetInt("concurrency")),
		epub.WithStylesheet(viper.GetString("stylesheet")),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Debug("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "bene:", err)
		os.Exit(1)
	}
}
