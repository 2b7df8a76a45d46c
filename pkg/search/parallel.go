package search

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

var errStopWalk = errors.New("stop walk")

// walkParallel visits the tree with a bounded fastwalk worker pool. Entry
// order is not deterministic; limits and counters behave as in walk.
func (w *walker) walkParallel(ctx context.Context) bool {
	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: w.opts.Workers,
	}

	err := fastwalk.Walk(&conf, w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return errStopWalk
		}
		if err != nil {
			w.logger.Debug("walk error", zap.String("path", path), zap.Error(err))
			return nil
		}
		if path == w.root {
			return nil
		}
		if w.col.full() {
			return errStopWalk
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		case d.IsDir():
			if !w.descend(rel, d.Name(), depth) {
				return filepath.SkipDir
			}
		case d.Type().IsRegular():
			w.visitFile(ctx, path, rel, d)
		}
		return nil
	})

	if ctx.Err() != nil {
		return false
	}
	if err != nil && !errors.Is(err, errStopWalk) {
		w.logger.Debug("parallel walk ended with error", zap.Error(err))
	}
	return true
}
