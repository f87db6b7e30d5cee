package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/clickwonder/broll-reviewer/internal/captions"
	"github.com/clickwonder/broll-reviewer/internal/project"
	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

// DefaultFrameRate is used when a render request names none.
const DefaultFrameRate = 30.0

// Exporter produces EDL and MP4 artifacts for render jobs.
type Exporter struct {
	repo   project.Repository
	styles captions.StyleSet
	outDir string
	logger *slog.Logger
}

func NewExporter(repo project.Repository, styles captions.StyleSet, outDir string, logger *slog.Logger) (*Exporter, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create export dir: %w", err)
	}
	return &Exporter{repo: repo, styles: styles, outDir: outDir, logger: logger}, nil
}

// Render implements project.Renderer.
func (e *Exporter) Render(ctx context.Context, projectID string, scenes []timeline.Scene, p project.RenderPayload) (string, error) {
	proj, err := e.repo.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	if proj == nil {
		return "", fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
	}

	narrationPath := e.resolveNarration(ctx, proj)
	list := BuildCutList(scenes, narrationPath, e.resolver(ctx))
	if len(list.Unresolved) > 0 {
		e.logger.Warn("cut list has unresolved assets",
			"project_id", projectID, "refs", strings.Join(list.Unresolved, ","))
	}

	frameRate := p.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	outPath, err := e.outputPath(proj.Name, p)
	if err != nil {
		return "", err
	}

	switch p.Format {
	case project.RenderFormatEDL:
		edl := GenerateEDL(list.Clips, proj.Name, frameRate)
		if err := os.WriteFile(outPath, []byte(edl), 0644); err != nil {
			return "", fmt.Errorf("failed to write EDL: %w", err)
		}

	case project.RenderFormatMP4:
		if err := e.renderMP4(ctx, scenes, list, narrationPath, p, frameRate, outPath); err != nil {
			return "", err
		}

	default:
		return "", fmt.Errorf("unknown render format %q", p.Format)
	}

	e.logger.Info("export finished",
		"project_id", projectID, "format", p.Format, "output", outPath)
	return outPath, nil
}

// EDL builds the cut list for the given scenes and returns the EDL text
// plus a download filename, without writing to the export directory.
func (e *Exporter) EDL(ctx context.Context, projectID string, scenes []timeline.Scene, frameRate float64) (string, string, error) {
	proj, err := e.repo.GetProject(ctx, projectID)
	if err != nil {
		return "", "", err
	}
	if proj == nil {
		return "", "", fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
	}
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	narrationPath := e.resolveNarration(ctx, proj)
	list := BuildCutList(scenes, narrationPath, e.resolver(ctx))
	return GenerateEDL(list.Clips, proj.Name, frameRate), ExportFileName(proj.Name, ".edl"), nil
}

// resolver maps asset refs to on-disk media, requiring both a ready
// status and a file that still exists.
func (e *Exporter) resolver(ctx context.Context) Resolver {
	return func(ref string) (string, bool) {
		a, err := e.repo.GetAsset(ctx, ref)
		if err != nil || a == nil {
			return "", false
		}
		if a.Status != project.AssetStatusReady || a.LocalPath == "" {
			return "", false
		}
		if _, err := os.Stat(a.LocalPath); err != nil {
			return "", false
		}
		return a.LocalPath, true
	}
}

func (e *Exporter) resolveNarration(ctx context.Context, proj *project.Project) string {
	if proj.NarrationRef == "" {
		return ""
	}
	path, ok := e.resolver(ctx)(proj.NarrationRef)
	if !ok {
		e.logger.Warn("narration asset not resolvable",
			"project_id", proj.ID, "ref", proj.NarrationRef)
		return ""
	}
	return path
}

func (e *Exporter) outputPath(name string, p project.RenderPayload) (string, error) {
	dir := e.outDir
	if p.Output != "" {
		if err := ValidateOutputDir(p.Output); err != nil {
			return "", err
		}
		dir = p.Output
	}
	return filepath.Join(dir, ExportFileName(name, "."+p.Format)), nil
}

// captionLines derives burn-in captions from scene titles, optionally
// forcing a named style preset.
func captionLines(scenes []timeline.Scene, styleName string) []captions.Line {
	lines := captions.FromScenes(scenes)
	if styleName != "" {
		for i := range lines {
			lines[i].Style = styleName
		}
	}
	return lines
}
