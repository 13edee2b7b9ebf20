// Package files_manager resolves output paths and builds batch plans.
// It performs no image I/O: everything here is path-string work plus
// directory listing, so a whole batch is fully resolved before the
// first pixel is read.
package files_manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/rbs-sci/PASR/contracts"
)

// ListEntries returns the immediate children of dir, skipping dotfiles
// the way a shell glob would. Subdirectories are returned as plain
// entries; they fail later with an unsupported-format error instead of
// being filtered here.
func ListEntries(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "listing %s", dir)
	}
	paths := make([]string, 0, len(entries))
	var size int64
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
		if entry.IsDir() {
			continue
		}
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
	}
	return paths, size, nil
}

func forcedExt(opts contracts.Options) (string, bool) {
	switch {
	case opts.ForceTIF:
		return ".tif", true
	case opts.ForceMRC:
		return ".mrc", true
	case opts.ForceJPG:
		return ".jpg", true
	}
	return "", false
}

// OutputName derives the output file name for one input file name:
// keep the base name or tag it with _PASR_{scale}x, then let a force
// flag rewrite the extension.
func OutputName(inputName string, opts contracts.Options) string {
	ext := filepath.Ext(inputName)
	base := strings.TrimSuffix(filepath.Base(inputName), ext)

	if forced, ok := forcedExt(opts); ok {
		ext = forced
	}
	if opts.KeepBasename {
		return base + ext
	}
	return fmt.Sprintf("%s_PASR_%dx%s", base, opts.Scale, ext)
}

// ResolveFilePath resolves the output path for a single-file run. An
// explicit output path is used as given, except that a force flag
// still rewrites its extension.
func ResolveFilePath(inputPath string, opts contracts.Options) string {
	out := opts.Output
	if out == "" {
		out = filepath.Join(filepath.Dir(inputPath), OutputName(inputPath, opts))
	} else if forced, ok := forcedExt(opts); ok {
		out = strings.TrimSuffix(out, filepath.Ext(out)) + forced
	}
	return out
}

// ResolveFlip decides whether a TIFF output is written bottom-up. An
// explicit flag always wins; otherwise only the MRC-to-TIFF direction
// flips, reconciling the axis conventions of the two formats.
func ResolveFlip(inputPath, outputPath string, flag *bool) bool {
	if flag != nil {
		return *flag
	}
	return contracts.FormatForPath(inputPath) == contracts.FormatMRC &&
		contracts.FormatForPath(outputPath) == contracts.FormatTIFF
}

// BuildJobs lists inputDir and resolves one job per entry. The plan is
// complete before any processing starts; the flip decision is made per
// entry because extensions vary within a directory.
func BuildJobs(inputDir string, opts contracts.Options) ([]contracts.Job, int64, error) {
	paths, size, err := ListEntries(inputDir)
	if err != nil {
		return nil, 0, err
	}
	jobs := make([]contracts.Job, 0, len(paths))
	for _, p := range paths {
		out := filepath.Join(opts.Output, OutputName(p, opts))
		jobs = append(jobs, contracts.Job{
			InputPath:   p,
			OutputPath:  out,
			Scale:       opts.Scale,
			Compression: opts.Compression,
			Flip:        ResolveFlip(p, out, opts.FlipTIF),
		})
	}
	return jobs, size, nil
}

// IsDir reports whether path names an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// EnsureOutputDir validates the output spec of a batch run and creates
// the directory when it does not exist yet. A path occupied by a
// regular file is rejected.
func EnsureOutputDir(path string) error {
	if path == "" {
		return contracts.ErrOutputNotDirectory
	}
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return contracts.ErrOutputNotDirectory
	case os.IsNotExist(err):
		return errors.Wrapf(os.MkdirAll(path, 0o755), "creating %s", path)
	default:
		return errors.Wrapf(err, "checking %s", path)
	}
}

// SamePath reports whether two paths are textually identical after
// normalization. Symlinks are not resolved; the check guards the
// obvious self-overwrite, not every aliasing trick.
func SamePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
