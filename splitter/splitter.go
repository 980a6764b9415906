package splitter

import (
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lastiler/geometry"
)

// ErrTypeSplitTool is the error type of failed splitter invocations.
const ErrTypeSplitTool = "split_tool_error"

// Request describes how a point cloud file is cut along a uniform grid.
type Request struct {
	// The file to split.
	Input string

	// The directory where fragments are written. It must exist.
	OutputDir string

	NumX   int
	NumY   int
	Bounds geometry.Extent
}

// Splitter cuts a point cloud file along a uniform grid and writes one
// fragment file per non-empty cell into the request output directory.
// Fragment names are chosen by the implementation.
type Splitter interface {
	Split(ctx context.Context, req Request) error
}

// PDAL is a Splitter that runs the pdal grid application.
type PDAL struct {
	// The pdal executable. Defaults to "pdal".
	Bin string
}

func (p PDAL) Split(ctx context.Context, req Request) error {
	bin := p.Bin
	if bin == "" {
		bin = "pdal"
	}

	args := p.Args(req)
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.New("pdal grid failed").
			WithType(ErrTypeSplitTool).
			WithTag("input", req.Input).
			WithTag("command", bin+" "+strings.Join(args, " ")).
			WithTag("output", strings.TrimSpace(string(out))).
			Wrap(err)
	}
	return nil
}

// Args returns the command-line arguments of a pdal grid invocation.
func (p PDAL) Args(req Request) []string {
	return []string{
		"grid",
		"-i", req.Input,
		"-o", filepath.Join(req.OutputDir, filepath.Base(req.Input)),
		"--num_x=" + strconv.Itoa(req.NumX),
		"--num_y=" + strconv.Itoa(req.NumY),
		"--min_x=" + formatFloat(req.Bounds.MinX),
		"--min_y=" + formatFloat(req.Bounds.MinY),
		"--max_x=" + formatFloat(req.Bounds.MaxX),
		"--max_y=" + formatFloat(req.Bounds.MaxY),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
