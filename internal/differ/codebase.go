package differ

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
)

// CodebaseDifference aggregates the file differences between two codebases.
// Files holds only the paths that differ, sorted by path.
type CodebaseDifference struct {
	Codebase1 codebase.Codebase
	Codebase2 codebase.Codebase
	Files     []FileDifference
}

// AreDifferent reports whether any path differs.
func (d *CodebaseDifference) AreDifferent() bool {
	return len(d.Files) > 0
}

// OnlyIn1 returns the paths present only in the first codebase.
func (d *CodebaseDifference) OnlyIn1() []string {
	return d.paths(func(fd FileDifference) bool { return fd.Existence == Only1 })
}

// OnlyIn2 returns the paths present only in the second codebase.
func (d *CodebaseDifference) OnlyIn2() []string {
	return d.paths(func(fd FileDifference) bool { return fd.Existence == Only2 })
}

// Changed returns the paths present in both codebases that differ.
func (d *CodebaseDifference) Changed() []string {
	return d.paths(func(fd FileDifference) bool { return fd.Existence == Neither })
}

func (d *CodebaseDifference) paths(keep func(FileDifference) bool) []string {
	var out []string
	for _, fd := range d.Files {
		if keep(fd) {
			out = append(out, fd.Path)
		}
	}
	return out
}

// WriteReport writes a human-readable summary of d to w. When withContent is
// set, the diff tool output of each changed file follows the summary.
func (d *CodebaseDifference) WriteReport(w io.Writer, withContent bool) error {
	if !d.AreDifferent() {
		_, err := fmt.Fprintf(w, "No difference between %s and %s\n", d.Codebase1, d.Codebase2)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s differs from %s in %d file(s):\n", d.Codebase1, d.Codebase2, len(d.Files)); err != nil {
		return err
	}
	for _, fd := range d.Files {
		var line string
		switch {
		case fd.Existence == Only1:
			line = fmt.Sprintf("  only in %s: %s", d.Codebase1, fd.Path)
		case fd.Existence == Only2:
			line = fmt.Sprintf("  only in %s: %s", d.Codebase2, fd.Path)
		case fd.Symlink == Only1:
			line = fmt.Sprintf("  symbolic link only in %s: %s", d.Codebase1, fd.Path)
		case fd.Symlink == Only2:
			line = fmt.Sprintf("  symbolic link only in %s: %s", d.Codebase2, fd.Path)
		case fd.ContentDiffers && fd.Executability != Neither:
			line = fmt.Sprintf("  content and executability differ: %s", fd.Path)
		case fd.ContentDiffers:
			line = fmt.Sprintf("  content differs: %s", fd.Path)
		default:
			line = fmt.Sprintf("  executability differs: %s", fd.Path)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if !withContent {
		return nil
	}
	for _, fd := range d.Files {
		if fd.Content == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n%s", fd.Path, fd.Content); err != nil {
			return err
		}
	}
	return nil
}

// CodebaseDiffer compares whole codebases with a FileDiffer.
type CodebaseDiffer struct {
	Files FileDiffer
}

// NewCodebaseDiffer returns a CodebaseDiffer using files.
func NewCodebaseDiffer(files FileDiffer) *CodebaseDiffer {
	return &CodebaseDiffer{Files: files}
}

// Diff compares every path in the union of both trees. The result is empty
// iff every path compared identical.
func (d *CodebaseDiffer) Diff(ctx context.Context, c1, c2 codebase.Codebase) (*CodebaseDifference, error) {
	files1, err := fsys.Files(c1.Path)
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", c1, err)
	}
	files2, err := fsys.Files(c2.Path)
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", c2, err)
	}

	in1 := make(map[string]bool, len(files1))
	for _, f := range files1 {
		in1[f] = true
	}
	in2 := make(map[string]bool, len(files2))
	for _, f := range files2 {
		in2[f] = true
	}
	union := append([]string(nil), files1...)
	for _, f := range files2 {
		if !in1[f] {
			union = append(union, f)
		}
	}
	sort.Strings(union)

	result := &CodebaseDifference{Codebase1: c1, Codebase2: c2}
	for _, rel := range union {
		var f1, f2 string
		if in1[rel] {
			f1 = fsys.Join(c1.Path, rel)
		}
		if in2[rel] {
			f2 = fsys.Join(c2.Path, rel)
		}
		fd, err := d.Files.Diff(ctx, rel, f1, f2)
		if err != nil {
			return nil, err
		}
		if fd.IsDifferent() {
			result.Files = append(result.Files, fd)
		}
	}
	return result, nil
}
