package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/redfish-contrib/json2openapi/internal/config"
	"github.com/redfish-contrib/json2openapi/internal/index"
	"github.com/redfish-contrib/json2openapi/internal/redfish"
	"github.com/redfish-contrib/json2openapi/internal/servicedoc"
)

// Options configure a conversion run.
type Options struct {
	// InputDir holds the JSON Schema documents to convert. Only files with a
	// .json suffix are considered; subdirectories are not walked.
	InputDir string

	// OutputDir receives the converted YAML documents. Created when missing.
	OutputDir string

	// BaseFile optionally names an existing service document whose routes
	// seed the caches before conversion.
	BaseFile string

	// Overwrite controls whether versioned documents already present in the
	// output directory are regenerated. Unversioned documents always are.
	Overwrite bool

	Config *config.Config

	// Client performs schema downloads during reference classification.
	// Defaults to a plain http.Client.
	Client *http.Client

	Logger *slog.Logger
}

// Result reports what a run produced.
type Result struct {
	// Generated lists the converted document filenames that were written.
	Generated []string

	// Skipped lists versioned documents left in place under the overwrite
	// policy.
	Skipped []string

	// ServiceDoc is the path of the generated service document.
	ServiceDoc string
}

// Run converts every schema document in the input directory, then merges the
// collected route and action information and writes the service document.
// Per-document problems degrade to log output; only I/O failures around the
// run itself are returned as errors.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("convert: missing configuration")
	}

	idx := index.New(logger)
	if opts.BaseFile != "" {
		servicedoc.LoadBase(opts.BaseFile, cfg.Extensions, idx, logger)
	}

	resolver := NewResolver(opts.InputDir, opts.Client, logger)
	rewriter := NewRewriter(cfg.ODataSchema, resolver, logger)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("convert: create output directory: %w", err)
	}
	entries, err := os.ReadDir(opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("convert: read input directory: %w", err)
	}

	res := &Result{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		logger.Info("generating openapi document", "file", name)

		data, err := os.ReadFile(filepath.Join(opts.InputDir, name))
		if err != nil {
			logger.Error("could not open schema file", "file", name, "error", err)
			continue
		}
		doc, err := redfish.ParseDocument(data)
		if err != nil {
			logger.Error("schema file contains a malformed document", "file", name, "error", err)
			continue
		}

		idx.ScanDocument(doc, name)
		rewriter.RewriteDocument(ctx, doc)

		target := redfish.TargetFilename(name)
		outPath := filepath.Join(opts.OutputDir, target)
		if !opts.Overwrite && redfish.IsVersionedName(name) && fileExists(outPath) {
			res.Skipped = append(res.Skipped, target)
			continue
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert: encode %s: %w", target, err)
		}
		if err := writeFile(outPath, out); err != nil {
			return nil, fmt.Errorf("convert: write %s: %w", target, err)
		}
		res.Generated = append(res.Generated, target)
	}

	idx.MergeActions()

	logger.Info("generating service document", "file", cfg.OutputFile)
	doc, err := servicedoc.New(servicedoc.Options{
		MessageRef: cfg.MessageRef,
		TaskRef:    cfg.TaskRef,
		Info:       cfg.Info,
		Logger:     logger,
	}).Build(idx)
	if err != nil {
		return nil, fmt.Errorf("convert: build service document: %w", err)
	}
	out, err := servicedoc.EncodeYAML(doc)
	if err != nil {
		return nil, fmt.Errorf("convert: encode service document: %w", err)
	}
	// The service document path is taken as given, so a bare filename lands
	// in the working directory rather than the output directory.
	if err := writeFile(cfg.OutputFile, out); err != nil {
		return nil, fmt.Errorf("convert: write service document: %w", err)
	}
	res.ServiceDoc = cfg.OutputFile
	return res, nil
}

// writeFile writes data through a temp file and rename so readers never see
// a partially written document.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
