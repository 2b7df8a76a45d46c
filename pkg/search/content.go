package search

import (
	"bufio"
	"context"
	"os"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const (
	maxExpandedLen = 50
	maxPreviewLen  = 100
)

type contentScan struct {
	count    int
	matched  []string
	lines    []LineMatch
	preview  string
	binary   bool
	timeouts int
}

// scanContent streams a file line by line, stopping once the per-file cap
// is reached. Binary content in the first lines yields an empty result.
func (w *walker) scanContent(ctx context.Context, path string) contentScan {
	f, err := os.Open(path)
	if err != nil {
		w.logger.Debug("skipping unreadable file", zap.String("path", path), zap.Error(err))
		return contentScan{}
	}
	defer f.Close()

	limit := w.opts.MaxMatchesPerFile
	var res contentScan

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), MaxContentSearchSize+1)

	lineNo := 0
	for sc.Scan() {
		if ctx.Err() != nil {
			break
		}
		lineNo++
		if lineNo <= probeLines && looksBinary(sc.Bytes()) {
			return contentScan{binary: true}
		}

		line := sc.Text()
		var runes []rune
		hit := false

		m, err := w.contentRe.FindStringMatch(line)
		for m != nil {
			res.count++
			hit = true
			if runes == nil {
				runes = []rune(line)
			}
			res.matched = append(res.matched, expandMatch(runes, m.Index, m.Length))
			if res.count >= limit {
				break
			}
			m, err = w.contentRe.FindNextMatch(m)
		}
		if err != nil {
			// regexp2 MatchTimeout; give up on the rest of this file
			res.timeouts++
			w.logger.Debug("regex timed out", zap.String("path", path), zap.Int("line", lineNo))
		}

		if hit {
			trimmed := strings.TrimSpace(line)
			res.lines = append(res.lines, LineMatch{Content: trimmed, LineNo: lineNo})
			if res.preview == "" {
				res.preview = truncateEnd(trimmed, maxPreviewLen)
			}
		}

		if err != nil || res.count >= limit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		w.logger.Debug("read error during content search", zap.String("path", path), zap.Error(err))
	}

	return res
}

// expandMatch widens the rune span [start, start+length) over adjacent
// word runes so a hit inside an identifier reports the whole identifier
func expandMatch(runes []rune, start, length int) string {
	lo, hi := start, start+length
	if lo < 0 {
		lo = 0
	}
	if hi > len(runes) {
		hi = len(runes)
	}
	for lo > 0 && isWordRune(runes[lo-1]) {
		lo--
	}
	for hi < len(runes) && isWordRune(runes[hi]) {
		hi++
	}
	return truncateMiddle(string(runes[lo:hi]), maxExpandedLen)
}

// isWordRune covers ASCII word characters, hyphens, Han ideographs and kana
func isWordRune(r rune) bool {
	switch {
	case r == '_' || r == '-':
		return true
	case r < 0x80:
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	default:
		return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
	}
}

// truncateMiddle shortens s to limit runes, keeping both ends around "..."
func truncateMiddle(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	keep := limit - 3
	head := (keep + 1) / 2
	tail := keep - head
	return string(r[:head]) + "..." + string(r[len(r)-tail:])
}

func truncateEnd(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
