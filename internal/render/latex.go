package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// LaTeX renders raw LaTeX to png images through xelatex and imagemagick,
// wrapping the input in a minimal standalone document.
type LaTeX struct {
	WorkDir string
}

func (r *LaTeX) Render(ctx context.Context, text string) ([]string, error) {
	dir := workDirOrTemp(r.WorkDir)
	stem := renderStem()

	texPath := filepath.Join(dir, stem+".tex")
	pdfPath := filepath.Join(dir, stem+".pdf")

	source := "\\documentclass[border=8pt]{standalone}\n" +
		"\\usepackage{amsmath}\n" +
		"\\begin{document}\n" +
		text + "\n" +
		"\\end{document}\n"

	if err := os.WriteFile(texPath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("write latex input: %w", err)
	}
	defer os.Remove(texPath)
	defer os.Remove(filepath.Join(dir, stem+".aux"))
	defer os.Remove(filepath.Join(dir, stem+".log"))

	cmd := exec.CommandContext(ctx, "xelatex",
		"-interaction=nonstopmode",
		"-output-directory", dir,
		texPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("xelatex: %w: %s", err, strings.TrimSpace(string(output)))
	}
	defer os.Remove(pdfPath)

	return pdfToImages(ctx, dir, stem, pdfPath)
}
