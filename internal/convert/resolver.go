// Package convert turns a directory of Redfish JSON Schema documents into
// OpenAPI YAML documents and drives the caches behind the service document.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"syscall"

	"github.com/redfish-contrib/json2openapi/internal/redfish"
	"github.com/redfish-contrib/json2openapi/internal/retry"
)

// fetchAttempts bounds how often a schema download is retried when the
// remote end resets the connection.
const fetchAttempts = 20

// Resolver decides whether a cross-document reference points at an
// addressable resource or at a plain data type. The decision needs the
// referenced document, which is read from the input directory when present
// there and downloaded otherwise. Loaded documents are memoized; failed
// loads are attempted again on the next reference.
type Resolver struct {
	inputDir string
	client   *http.Client
	logger   *slog.Logger
	docs     map[string]map[string]any
}

// NewResolver returns a Resolver reading local documents from inputDir.
func NewResolver(inputDir string, client *http.Client, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		inputDir: inputDir,
		client:   client,
		logger:   logger,
		docs:     make(map[string]map[string]any),
	}
}

// IsLink reports whether ref resolves to a resource link, meaning the
// referenced definition is an idRef union. Unresolvable references are
// reported and treated as plain data types.
func (r *Resolver) IsLink(ctx context.Context, ref redfish.ExternalRef) bool {
	doc := r.document(ctx, ref)
	var def map[string]any
	if doc != nil {
		defs, _ := redfish.MapAt(doc, "definitions")
		def, _ = redfish.MapAt(defs, redfish.DefinitionName(ref.Ref))
	}
	if def == nil {
		r.logger.Error("could not get reference", "ref", ref.Ref)
		return false
	}
	return redfish.IsLinkDefinition(def)
}

func (r *Resolver) document(ctx context.Context, ref redfish.ExternalRef) map[string]any {
	local := filepath.Join(r.inputDir, ref.File())
	if doc, ok := r.docs[local]; ok {
		return doc
	}
	if fileExists(local) {
		doc, err := redfish.ReadDocument(local)
		if err != nil {
			r.logger.Error("could not read local schema", "file", local, "error", err)
			return nil
		}
		r.docs[local] = doc
		return doc
	}

	url := ref.URL()
	if doc, ok := r.docs[url]; ok {
		return doc
	}
	doc, err := r.fetch(ctx, url)
	if err != nil {
		r.logger.Debug("schema fetch failed", "url", url, "error", err)
		return nil
	}
	r.docs[url] = doc
	return doc
}

func (r *Resolver) fetch(ctx context.Context, url string) (map[string]any, error) {
	policy := retry.Policy{
		MaxAttempts: fetchAttempts,
		Retryable: func(err error) bool {
			return errors.Is(err, syscall.ECONNRESET)
		},
	}

	var doc map[string]any
	err := retry.Do(ctx, policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		parsed, err := redfish.ParseDocument(body)
		if err != nil {
			return err
		}
		doc = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
