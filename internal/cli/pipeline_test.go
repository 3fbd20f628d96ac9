package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const pipelineChassisJSON = `{
	"$schema": "http://redfish.dmtf.org/schemas/v1/redfish-schema-v1.json",
	"$ref": "#/definitions/Chassis",
	"definitions": {
		"Chassis": {
			"anyOf": [
				{"$ref": "http://redfish.dmtf.org/schemas/v1/odata-v4.json#/definitions/idRef"},
				{"$ref": "http://redfish.dmtf.org/schemas/v1/Chassis.v1_10_0.json#/definitions/Chassis"}
			],
			"uris": ["/redfish/v1/Chassis/{ChassisId}"],
			"insertable": false,
			"updatable": true,
			"deletable": false
		}
	}
}`

const pipelineChassisVersionedJSON = `{
	"$schema": "http://redfish.dmtf.org/schemas/v1/redfish-schema-v1.json",
	"$ref": "#/definitions/Chassis",
	"definitions": {
		"Chassis": {
			"type": "object",
			"properties": {
				"Name": {"type": "string", "readonly": true},
				"Actions": {"$ref": "#/definitions/Actions"}
			}
		},
		"Actions": {
			"type": "object",
			"properties": {
				"#Chassis.Reset": {"$ref": "#/definitions/Reset"}
			}
		},
		"Reset": {
			"type": "object",
			"description": "This action resets the chassis.",
			"longDescription": "This action shall reset the chassis.",
			"parameters": {
				"ResetType": {"type": "string", "requiredParameter": true}
			}
		}
	}
}`

const pipelineCollectionJSON = `{
	"$schema": "http://redfish.dmtf.org/schemas/v1/redfish-schema-v1.json",
	"definitions": {
		"ChassisCollection": {
			"anyOf": [
				{"$ref": "http://redfish.dmtf.org/schemas/v1/odata-v4.json#/definitions/idRef"},
				{
					"type": "object",
					"properties": {
						"Members": {
							"type": "array",
							"items": {"$ref": "http://redfish.dmtf.org/schemas/v1/Chassis.json#/definitions/Chassis"}
						}
					}
				}
			],
			"uris": ["/redfish/v1/Chassis"],
			"insertable": true,
			"updatable": false,
			"deletable": false
		}
	}
}`

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writePipelineInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Chassis.json":           pipelineChassisJSON,
		"Chassis.v1_10_0.json":   pipelineChassisVersionedJSON,
		"ChassisCollection.json": pipelineCollectionJSON,
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func writePipelineConfig(t *testing.T, dir, serviceDoc string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	contents := "OutputFile: '" + serviceDoc + "'\n" +
		"info:\n" +
		"  title: Contoso Redfish Service\n" +
		"  version: '1.0.0'\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConvertPipeline_WritesDocuments(t *testing.T) {
	dir := t.TempDir()
	inputDir := writePipelineInput(t)
	outDir := filepath.Join(dir, "openapi")
	serviceDoc := filepath.Join(dir, "openapi.yaml")
	configPath := writePipelineConfig(t, dir, serviceDoc)

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "-I", inputDir, "-O", outDir, "-C", configPath})

	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Converted 3 schema documents") {
		t.Fatalf("expected conversion summary, got: %s", out)
	}
	if !strings.Contains(out, "Wrote service document to "+serviceDoc) {
		t.Fatalf("expected service document line, got: %s", out)
	}

	for _, name := range []string{"Chassis.yaml", "Chassis.v1_10_0.yaml", "ChassisCollection.yaml"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected converted document %s: %v", name, err)
		}
	}

	versioned, err := os.ReadFile(filepath.Join(outDir, "Chassis.v1_10_0.yaml"))
	if err != nil {
		t.Fatalf("read converted document: %v", err)
	}
	for _, want := range []string{"components:", "ResetRequestBody", "x-longDescription"} {
		if !strings.Contains(string(versioned), want) {
			t.Fatalf("converted document missing %q:\n%s", want, versioned)
		}
	}

	svc, err := os.ReadFile(serviceDoc)
	if err != nil {
		t.Fatalf("read service document: %v", err)
	}
	for _, want := range []string{
		"title: Contoso Redfish Service",
		"/redfish/v1/Chassis/{ChassisId}:",
		"/redfish/v1/Chassis/{ChassisId}/Actions/Chassis.Reset:",
		"RedfishError",
	} {
		if !strings.Contains(string(svc), want) {
			t.Fatalf("service document missing %q:\n%s", want, svc)
		}
	}
}

func TestConvertPipeline_OverwritePolicy(t *testing.T) {
	dir := t.TempDir()
	inputDir := writePipelineInput(t)
	outDir := filepath.Join(dir, "openapi")
	serviceDoc := filepath.Join(dir, "openapi.yaml")
	configPath := writePipelineConfig(t, dir, serviceDoc)

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "-I", inputDir, "-O", outDir, "-C", configPath})
	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("first execute: %v", err)
		}
	})
	if !strings.Contains(out, "Converted 3 schema documents") {
		t.Fatalf("expected conversion summary, got: %s", out)
	}

	// Plant sentinels so the second run shows which files it rewrote.
	versionedPath := filepath.Join(outDir, "Chassis.v1_10_0.yaml")
	unversionedPath := filepath.Join(outDir, "Chassis.yaml")
	for _, path := range []string{versionedPath, unversionedPath} {
		if err := os.WriteFile(path, []byte("sentinel"), 0o600); err != nil {
			t.Fatalf("plant sentinel: %v", err)
		}
	}

	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "-I", inputDir, "-O", outDir, "-C", configPath, "-W=false"})
	out = captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("second execute: %v", err)
		}
	})
	if !strings.Contains(out, "Converted 2 schema documents") {
		t.Fatalf("expected two conversions, got: %s", out)
	}
	if !strings.Contains(out, "Kept 1 existing versioned documents") {
		t.Fatalf("expected skip summary, got: %s", out)
	}

	versioned, err := os.ReadFile(versionedPath)
	if err != nil {
		t.Fatalf("read versioned document: %v", err)
	}
	if string(versioned) != "sentinel" {
		t.Fatalf("versioned document was rewritten without --overwrite")
	}
	unversioned, err := os.ReadFile(unversionedPath)
	if err != nil {
		t.Fatalf("read unversioned document: %v", err)
	}
	if string(unversioned) == "sentinel" {
		t.Fatalf("unversioned document was not regenerated")
	}
}
