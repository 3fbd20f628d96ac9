package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/redfish-contrib/json2openapi/internal/config"
	"github.com/redfish-contrib/json2openapi/internal/convert"
)

// ConvertConfig captures all inputs that influence the convert command after
// merging defaults and CLI flags.
type ConvertConfig struct {
	Input      string
	Output     string
	ConfigPath string
	Base       string
	Overwrite  bool
	Verbose    bool
}

func defaultConvertConfig() ConvertConfig {
	return ConvertConfig{Overwrite: true}
}

var convertRunner = runConvert

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a directory of Redfish JSON Schema documents",
		Long: "Convert every JSON Schema document in the input directory to its OpenAPI form and " +
			"write the service document listing the URIs and methods the schemas declare.",
		Example: strings.TrimSpace(`  json2openapi convert --input ./json-schema --output ./openapi --config config.yaml
  json2openapi convert -I ./json-schema -O ./openapi -C config.yaml -B openapi.yaml --overwrite=false`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConvertConfig(cmd)
			if err != nil {
				return err
			}
			return convertRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "I", "", "Directory holding the JSON Schema files to convert")
	flags.StringP("output", "O", "", "Directory to receive the converted OpenAPI files")
	flags.StringP("config", "C", "", "Configuration file with the service document settings")
	flags.StringP("base", "B", "", "Existing OpenAPI service document to merge new routes into")
	flags.BoolP("overwrite", "W", true, "Regenerate versioned files already present in the output directory")

	return cmd
}

func resolveConvertConfig(cmd *cobra.Command) (*ConvertConfig, error) {
	cfg := defaultConvertConfig()

	if err := applyConvertFlags(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyConvertFlags(flags *pflag.FlagSet, cfg *ConvertConfig) error {
	var err error
	if cfg.Input, err = flags.GetString("input"); err != nil {
		return err
	}
	if cfg.Output, err = flags.GetString("output"); err != nil {
		return err
	}
	if cfg.ConfigPath, err = flags.GetString("config"); err != nil {
		return err
	}
	if cfg.Base, err = flags.GetString("base"); err != nil {
		return err
	}
	if cfg.Overwrite, err = flags.GetBool("overwrite"); err != nil {
		return err
	}
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return err
	}
	return nil
}

func (c *ConvertConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Output = strings.TrimSpace(c.Output)
	c.ConfigPath = strings.TrimSpace(c.ConfigPath)
	c.Base = strings.TrimSpace(c.Base)
}

func (c *ConvertConfig) validate() error {
	if c.Input == "" {
		return newUsageError("convert: --input is required (directory of JSON Schema files)")
	}
	if c.Output == "" {
		return newUsageError("convert: --output is required (directory for the converted files)")
	}
	if c.ConfigPath == "" {
		return newUsageError("convert: --config is required (service document settings)")
	}
	return nil
}

func runConvert(ctx context.Context, cfg *ConvertConfig) error {
	logger := newLogger(cfg.Verbose)

	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return newUsageError(err.Error())
	}

	res, err := convert.Run(ctx, convert.Options{
		InputDir:  cfg.Input,
		OutputDir: cfg.Output,
		BaseFile:  cfg.Base,
		Overwrite: cfg.Overwrite,
		Config:    conf,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Converted %d schema documents to %s\n", len(res.Generated), cfg.Output)
	if len(res.Skipped) > 0 {
		fmt.Fprintf(os.Stdout, "Kept %d existing versioned documents\n", len(res.Skipped))
	}
	fmt.Fprintf(os.Stdout, "Wrote service document to %s\n", res.ServiceDoc)
	return nil
}

// newLogger builds the logger behind a conversion run. The default level keeps
// the per-document progress lines; --verbose adds debug output such as failed
// schema fetches.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
