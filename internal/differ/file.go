package differ

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/reposync/internal/cmdrun"
	"github.com/roach88/reposync/internal/fsys"
)

// Side identifies which of the two compared trees something belongs to.
type Side int

const (
	// Neither means the property is the same on both sides.
	Neither Side = iota
	// Only1 means the property holds only for the first tree.
	Only1
	// Only2 means the property holds only for the second tree.
	Only2
)

// FileDifference is the outcome of comparing one relative path.
type FileDifference struct {
	// Path is the slash-separated path relative to both codebase roots.
	Path string

	// File1 and File2 are the compared files; empty when absent.
	File1 string
	File2 string

	// Existence tells which side the file exists on when it is missing
	// from the other.
	Existence Side

	// Executability tells which side has the execute bit when only one
	// does.
	Executability Side

	// Symlink tells which side is a symbolic link when only one is.
	Symlink Side

	// ContentDiffers is set when both files exist and the diff tool
	// reported a difference, or when both are symbolic links to different
	// targets. Content then holds the tool's output or the two targets.
	ContentDiffers bool
	Content        string
}

// IsDifferent reports whether any difference was found.
func (d FileDifference) IsDifferent() bool {
	return d.Existence != Neither || d.Executability != Neither || d.Symlink != Neither || d.ContentDiffers
}

// FileDiffer compares the file at a relative path in two trees. Either
// absolute path may be empty, meaning the file is absent on that side.
type FileDiffer interface {
	Diff(ctx context.Context, rel, file1, file2 string) (FileDifference, error)
}

// ToolDiffer is a FileDiffer that invokes an external diff tool.
type ToolDiffer struct {
	Runner cmdrun.Runner

	// Tool is the diff executable. Defaults to "diff".
	Tool string

	// Args precede the two file paths. Defaults to -N -u.
	Args []string
}

// NewToolDiffer returns a ToolDiffer running diff -N -u through runner.
func NewToolDiffer(runner cmdrun.Runner) *ToolDiffer {
	return &ToolDiffer{Runner: runner}
}

// Diff implements FileDiffer.
//
// The tool is only run when a regular file exists on both sides. Symbolic
// links are never followed: a link and a non-link always differ, and two
// links are compared by target. A *cmdrun.CommandError from the tool means
// the contents differ; every other error is returned unchanged.
func (d *ToolDiffer) Diff(ctx context.Context, rel, file1, file2 string) (FileDifference, error) {
	fd := FileDifference{Path: rel, File1: file1, File2: file2}

	exists1 := file1 != "" && fsys.IsFile(file1)
	exists2 := file2 != "" && fsys.IsFile(file2)
	switch {
	case !exists1 && !exists2:
		return fd, nil
	case !exists1:
		fd.File1 = ""
		fd.Existence = Only2
		return fd, nil
	case !exists2:
		fd.File2 = ""
		fd.Existence = Only1
		return fd, nil
	}

	target1, link1, err := fsys.Symlink(file1)
	if err != nil {
		return fd, fmt.Errorf("diff %s: %w", rel, err)
	}
	target2, link2, err := fsys.Symlink(file2)
	if err != nil {
		return fd, fmt.Errorf("diff %s: %w", rel, err)
	}
	switch {
	case link1 && link2:
		if target1 != target2 {
			fd.ContentDiffers = true
			fd.Content = fmt.Sprintf("-> %s\n+> %s\n", target1, target2)
		}
		return fd, nil
	case link1:
		fd.Symlink = Only1
		return fd, nil
	case link2:
		fd.Symlink = Only2
		return fd, nil
	}

	exec1, err := fsys.IsExecutable(file1)
	if err != nil {
		return fd, fmt.Errorf("diff %s: %w", rel, err)
	}
	exec2, err := fsys.IsExecutable(file2)
	if err != nil {
		return fd, fmt.Errorf("diff %s: %w", rel, err)
	}
	switch {
	case exec1 && !exec2:
		fd.Executability = Only1
	case exec2 && !exec1:
		fd.Executability = Only2
	}

	tool := d.Tool
	if tool == "" {
		tool = "diff"
	}
	args := d.Args
	if args == nil {
		args = []string{"-N", "-u"}
	}
	args = append(append([]string(nil), args...), file1, file2)

	_, err = d.Runner.Run(ctx, "", tool, args...)
	if err == nil {
		return fd, nil
	}
	var ce *cmdrun.CommandError
	if errors.As(err, &ce) {
		fd.Content = ce.Stdout
		fd.ContentDiffers = true
		return fd, nil
	}
	return fd, fmt.Errorf("diff %s: %w", rel, err)
}
