package render

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Renderer rasterizes a text buffer into one or more image files on disk.
// A non-zero exit from the underlying pipeline is a failure. The returned
// files belong to the caller, who removes them after they are sent;
// intermediate inputs are cleaned up by the renderer itself.
type Renderer interface {
	Render(ctx context.Context, text string) ([]string, error)
}

func renderStem() string {
	buffer := make([]byte, 6)
	_, _ = rand.Read(buffer)

	return "render_" + hex.EncodeToString(buffer)
}

func workDirOrTemp(dir string) string {
	if dir == "" {
		return os.TempDir()
	}

	return dir
}

// pdfToImages converts a rendered pdf into trimmed, inverted png files and
// returns them ordered by filename, so multi-page output keeps page order.
func pdfToImages(ctx context.Context, dir string, stem string, pdfPath string) ([]string, error) {
	pngPath := filepath.Join(dir, stem+".png")

	cmd := exec.CommandContext(ctx, "convert",
		"-trim",
		"-density", "300",
		"-channel", "RGB",
		"-negate",
		"+channel", "RGB",
		pdfPath, pngPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("convert: %w: %s", err, strings.TrimSpace(string(output)))
	}

	// Multi-page pdfs come out as {stem}-{page}.png, single pages as {stem}.png.
	matches, err := filepath.Glob(filepath.Join(dir, stem+"*.png"))
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)

	return matches, nil
}
