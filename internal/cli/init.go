package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample json2openapi configuration file",
		Long:  "Scaffold a commented json2openapi configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", "json2openapi.yaml", "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "json2openapi.yaml"
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# json2openapi configuration (YAML or JSON)
# The info block is required; every other field falls back to the default
# shown here.

# Where to write the OpenAPI service document. A relative path is resolved
# against the working directory, not the output directory.
# OutputFile: openapi.yaml

# Location of the OData schema that resource links reference.
# ODataSchema: http://redfish.dmtf.org/schemas/v1/odata-v4.yaml

# Message schema referenced by error payloads.
# MessageRef: http://redfish.dmtf.org/schemas/v1/Message.v1_0_8.yaml#/components/schemas/Message

# Task schema referenced by 202 Accepted responses.
# TaskRef: http://redfish.dmtf.org/schemas/v1/Task.v1_4_2.yaml#/components/schemas/Task

# Additional URIs per schema type, for routes the converted schemas do not
# declare themselves.
# Extensions:
#   ChassisCollection:
#     - /redfish/v1/CompositionService/ResourceBlocks/{ResourceBlockId}/Chassis

# Copied into the service document as its info block.
info:
  title: Redfish Service
  version: '2026.1'
  description: This document describes the URIs and methods of a Redfish Service.
`
