package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Pandoc renders markdown (with inline math) to png images through pandoc,
// xelatex, and imagemagick.
type Pandoc struct {
	WorkDir string
}

func (r *Pandoc) Render(ctx context.Context, text string) ([]string, error) {
	dir := workDirOrTemp(r.WorkDir)
	stem := renderStem()

	mdPath := filepath.Join(dir, stem+".md")
	pdfPath := filepath.Join(dir, stem+".pdf")

	// The gobble header suppresses page numbers on the rendered card.
	source := "\\pagenumbering{gobble}\n" + text

	if err := os.WriteFile(mdPath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown input: %w", err)
	}
	defer os.Remove(mdPath)

	cmd := exec.CommandContext(ctx, "pandoc",
		"-V", "geometry:margin=0.2in",
		"-V", "geometry:paperwidth=4.25in",
		"-V", "geometry:paperheight=3.25in",
		"--pdf-engine=xelatex",
		"-o", pdfPath,
		mdPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pandoc: %w: %s", err, strings.TrimSpace(string(output)))
	}
	defer os.Remove(pdfPath)

	return pdfToImages(ctx, dir, stem, pdfPath)
}
