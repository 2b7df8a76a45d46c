package evaluator

import (
	"errors"
	"fmt"
	"time"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
	"github.com/computerscienceiscool/llm-fstools/pkg/search"
)

// ExecuteSearch handles the "search" command: a content search under the
// primary root, ranked by relevance
func (e *Executor) ExecuteSearch(query string) scanner.ExecutionResult {
	startTime := time.Now()
	result := scanner.ExecutionResult{
		Command: scanner.Command{Type: scanner.CmdSearch, Argument: query},
	}

	res, err := e.engine.SearchByContent(e.ctx, e.sandbox.Primary(), query, e.config.SearchOptions())
	if err != nil {
		e.fail(&result, startTime, searchError(err))
		return result
	}

	search.SortByRelevance(res.Matches)
	result.Result = search.FormatResults(res, query, e.config.Search.MaxResults, time.Since(startTime))
	e.succeed(&result, startTime, searchSummary(res, startTime))
	return result
}

// ExecuteFind handles the "find" command: a file name search under the
// primary root, in traversal order
func (e *Executor) ExecuteFind(pattern string) scanner.ExecutionResult {
	startTime := time.Now()
	result := scanner.ExecutionResult{
		Command: scanner.Command{Type: scanner.CmdFind, Argument: pattern},
	}

	res, err := e.engine.SearchByFileName(e.ctx, e.sandbox.Primary(), pattern, e.config.SearchOptions())
	if err != nil {
		e.fail(&result, startTime, searchError(err))
		return result
	}

	result.Result = search.FormatResults(res, pattern, e.config.Search.MaxResults, time.Since(startTime))
	e.succeed(&result, startTime, searchSummary(res, startTime))
	return result
}

// searchError keeps coded errors as they are and prefixes everything else
func searchError(err error) error {
	if errors.Is(err, fserrors.ErrPatternInvalid) || errors.Is(err, fserrors.ErrFileNotFound) {
		return err
	}
	return fmt.Errorf("SEARCH_FAILED: %w", err)
}

func searchSummary(res *search.Result, startTime time.Time) string {
	return fmt.Sprintf("results:%d,scanned:%d,status:%s,duration:%.3fs",
		len(res.Matches), res.FilesScanned, res.Status, time.Since(startTime).Seconds())
}
