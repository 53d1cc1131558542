package hugo

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"coinpress/internal/ports"
)

// Builder triggers a static-site rebuild by invoking the hugo binary.
type Builder struct {
	binPath string
	siteDir string
	logger  *slog.Logger
}

var _ ports.SiteBuilder = (*Builder)(nil)

// NewBuilder wires the hugo binary path (defaults to "hugo" on PATH) and the
// site root directory.
func NewBuilder(binPath, siteDir string, log *slog.Logger) *Builder {
	if binPath == "" {
		binPath = "hugo"
	}
	return &Builder{binPath: binPath, siteDir: siteDir, logger: log}
}

// Build runs `hugo --source <siteDir> --minify` and surfaces its output on
// failure.
func (b *Builder) Build(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, b.binPath, "--source", b.siteDir, "--minify")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hugo build: %w: %s", err, strings.TrimSpace(string(output)))
	}
	if b.logger != nil {
		b.logger.Debug("site rebuilt", "dir", b.siteDir)
	}
	return nil
}
