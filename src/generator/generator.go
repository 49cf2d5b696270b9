// Package generator scaffolds application projects from a freeform prompt in
// agent mode. The model produces a strict JSON manifest of files which is
// validated and written to disk.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/afero"

	"github.com/SohailShaikh7860/ai-agent-cli/src/aisdk"
	"github.com/SohailShaikh7860/ai-agent-cli/src/gateway"
)

var (
	// ErrNoResult indicates the model produced no usable manifest.
	ErrNoResult = errors.New("generation produced no result")
)

const generatorSystemPrompt = `You are an application scaffolding assistant. Given a description of an application, respond with ONLY a JSON object, no prose and no markdown fences, matching this shape:

{
  "directory": "short-kebab-case-project-name",
  "files": [
    {"path": "relative/path/to/file", "content": "full file content"}
  ],
  "setup_commands": ["commands the user should run to get started"]
}

Include every file the project needs. Paths are relative to the project directory and must not escape it.`

// Request carries the inputs for one generation run.
type Request struct {
	Prompt     string
	WorkingDir string
}

// Result reports what was generated.
type Result struct {
	OutputDir     string
	Files         []string
	SetupCommands []string
}

type manifest struct {
	Directory     string         `json:"directory"`
	Files         []manifestFile `json:"files"`
	SetupCommands []string       `json:"setup_commands"`
}

type manifestFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Generator turns prompts into scaffolded projects on disk.
type Generator struct {
	Gateway *gateway.Gateway
	FS      afero.Fs
	Logger  *slog.Logger
}

// New creates a generator writing through the given filesystem.
func New(gw *gateway.Gateway, fs afero.Fs, logger *slog.Logger) *Generator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		Gateway: gw,
		FS:      fs,
		Logger:  logger.With("component", "generator"),
	}
}

// Generate asks the model for a project manifest and writes it under the
// working directory.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	messages := []*aisdk.Message{
		{Role: "system", Content: generatorSystemPrompt + environmentBlock(req.WorkingDir)},
		{Role: "user", Content: req.Prompt},
	}

	raw, err := g.Gateway.GetMessage(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}

	m, err := parseManifest(raw)
	if err != nil {
		return nil, err
	}

	outputDir := filepath.Join(req.WorkingDir, m.Directory)
	result := &Result{
		OutputDir:     outputDir,
		SetupCommands: m.SetupCommands,
	}

	for _, file := range m.Files {
		cleaned, err := safeJoin(outputDir, file.Path)
		if err != nil {
			return nil, err
		}

		if err := g.writeFile(cleaned, file.Content); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
		result.Files = append(result.Files, file.Path)
	}

	g.Logger.Info("generated project", "dir", outputDir, "files", len(result.Files))
	return result, nil
}

func (g *Generator) writeFile(path, content string) error {
	if existing, err := afero.ReadFile(g.FS, path); err == nil {
		// Overwriting: keep a diff in the log so the change is traceable.
		diff := udiff.Unified(path, path, string(existing), content)
		g.Logger.Info("overwriting existing file", "path", path, "diff", diff)
	}

	if err := g.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(g.FS, path, []byte(content), 0o644)
}

// parseManifest decodes the model output, tolerating markdown fences the
// model sometimes adds despite instructions.
func parseManifest(raw string) (*manifest, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if trimmed == "" {
		return nil, ErrNoResult
	}

	var m manifest
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return nil, fmt.Errorf("failed to parse generation manifest: %w", err)
	}

	if m.Directory == "" || len(m.Files) == 0 {
		return nil, ErrNoResult
	}
	return &m, nil
}

// safeJoin joins path under dir, rejecting traversal outside dir.
func safeJoin(dir, path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("manifest path must be relative: %s", path)
	}
	joined := filepath.Join(dir, path)
	if !strings.HasPrefix(joined, filepath.Clean(dir)+string(filepath.Separator)) {
		return "", fmt.Errorf("manifest path escapes project directory: %s", path)
	}
	return joined, nil
}
