package revision

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/format"

	"github.com/rs/zerolog/log"
)

// ErrBadRevision is returned for a revision git cannot resolve to a commit.
var ErrBadRevision = errors.New("unknown revision")

// GitLoader reads catalogs as they were at a given git revision.
type GitLoader struct {
	registry *format.Registry
}

// NewGitLoader creates a loader decoding with the codecs in registry.
func NewGitLoader(registry *format.Registry) *GitLoader {
	return &GitLoader{registry: registry}
}

// CatalogAt decodes path as of rev. path is relative to dir, which must
// lie inside a git work tree.
func (gl *GitLoader) CatalogAt(ctx context.Context, dir, rev, path string) (*catalog.Catalog, error) {
	codec, err := gl.registry.ForPath(path)
	if err != nil {
		return nil, err
	}

	object := objectName(rev, path)
	cmd := exec.CommandContext(ctx, "git", "show", object)
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git show %s: %w", object, err)
	}

	c, err := codec.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", object, err)
	}
	log.Debug().Str("rev", rev).Str("file", path).Msg("Loaded catalog revision")
	return c, nil
}

// ChangedCatalogs lists decodable catalog files under folder that differ
// between two revisions, relative to dir.
func (gl *GitLoader) ChangedCatalogs(ctx context.Context, dir, base, target, folder string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", "--relative", base, target, "--", folder)
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff --name-only: %w", err)
	}

	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		codec, err := gl.registry.ForPath(line)
		if err != nil || !codec.CanDecode() {
			continue
		}
		files = append(files, line)
	}

	log.Info().Int("files", len(files)).Msg("Found changed catalogs in Git diff")
	return files, nil
}

// DiffFile diffs one catalog between two revisions. A file missing at
// either revision is treated as empty, so a new catalog shows every
// message as added and a deleted one every message as removed. Both
// revisions must name commits.
func (gl *GitLoader) DiffFile(ctx context.Context, dir, base, target, path string) ([]Change, error) {
	for _, rev := range []string{base, target} {
		if err := verifyRevision(ctx, dir, rev); err != nil {
			return nil, err
		}
	}

	before, err := gl.catalogOrEmpty(ctx, dir, base, path)
	if err != nil {
		return nil, err
	}
	after, err := gl.catalogOrEmpty(ctx, dir, target, path)
	if err != nil {
		return nil, err
	}
	return Diff(before, after), nil
}

func (gl *GitLoader) catalogOrEmpty(ctx context.Context, dir, rev, path string) (*catalog.Catalog, error) {
	ok, err := pathExists(ctx, dir, rev, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info().Str("rev", rev).Str("file", path).Msg("Catalog absent at revision, diffing against empty")
		return &catalog.Catalog{}, nil
	}
	return gl.CatalogAt(ctx, dir, rev, path)
}

func objectName(rev, path string) string {
	return rev + ":./" + filepath.ToSlash(filepath.Clean(path))
}

func verifyRevision(ctx context.Context, dir, rev string) error {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrBadRevision, rev, err)
	}
	return nil
}

// pathExists reports whether path is present at rev. rev must already be
// verified; any git failure then means the path is absent.
func pathExists(ctx context.Context, dir, rev, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "cat-file", "-e", objectName(rev, path))
	cmd.Dir = dir
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &exitErr):
		return false, nil
	default:
		return false, fmt.Errorf("git cat-file %s: %w", objectName(rev, path), err)
	}
}
