package coverage

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/logger"
)

// ParseFile opens path and parses it as a coverage document. Files ending in
// .json are read as gcovr JSON reports, everything else as Cobertura XML.
func ParseFile(path string, opts ParseOptions) ([]FileCoverage, error) {
	if isGcovrJSON(path) {
		return ParseGcovrFile(path, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, cverr.NoInput(err, path)
	}
	defer f.Close()

	if opts.Name == "" {
		opts.Name = path
	}
	return Parse(f, opts)
}

// LoadFiles parses every path concurrently, one goroutine per document. The
// returned slice is in input order. The first failure cancels the rest and is
// returned; a malformed document is never skipped.
func LoadFiles(ctx context.Context, paths []string, opts ParseOptions) ([][]FileCoverage, error) {
	docs := make([][]FileCoverage, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o := opts
			o.Name = p
			files, err := ParseFile(p, o)
			if err != nil {
				return err
			}
			logger.Debug("parsed %s: %d file(s)", p, len(files))
			docs[i] = files
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Load parses and merges the documents at paths into one Dataset.
func Load(ctx context.Context, paths []string, opts ParseOptions) (*Dataset, error) {
	docs, err := LoadFiles(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	return Merge(docs...)
}

// ExpandPaths expands doublestar glob patterns such as "build/**/coverage.xml"
// into file paths. Plain paths are kept as given so a missing file is reported
// when it is opened. The result is de-duplicated and keeps pattern order.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, pat := range patterns {
		if !hasGlobMeta(pat) {
			add(pat)
			continue
		}
		matches, err := doublestar.FilepathGlob(pat)
		if err != nil {
			return nil, cverr.Configuration("invalid input pattern %q: %v", pat, err)
		}
		if len(matches) == 0 {
			return nil, cverr.NoInput(os.ErrNotExist, pat)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func hasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
