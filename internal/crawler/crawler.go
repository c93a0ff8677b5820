// Package crawler implements the three site-specific menu crawlers.
package crawler

import (
	"context"
	"log/slog"
	"regexp"
	"sync"

	"github.com/wafflestudio/siksha-crawler/internal/meal"
	"github.com/wafflestudio/siksha-crawler/internal/observability"
	"github.com/wafflestudio/siksha-crawler/internal/text"
)

// Crawler fetches one source's menu pages over its date window and
// returns the meals it found. Implementations own no state beyond
// configuration constants; the returned slice is the only output.
type Crawler interface {
	Name() string
	FetchWindow(ctx context.Context) ([]meal.Meal, error)
}

// notMealPatterns match administrative notices that share table cells
// with real menu entries: closure notices, inquiry lines, price notes,
// serving-time windows. Matching runs on the letters-only code.
var notMealPatterns = compilePatterns([]string{
	"휴무",
	"휴점",
	"폐점",
	"휴업",
	"제공",
	"운영",
	"won",
	"한달간",
	"구독서비스",
	`월\d*회`,
	"일반식코너",
	"휴관",
	"요일별",
	"문의",
	"점심",
	"저녁",
	"배식시간",
})

// genericNames are bare section words that carry no menu content; they
// are rejected on exact match only.
var genericNames = map[string]bool{
	"메뉴": true,
	"식단": true,
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}

// isMealName gates every candidate: the letters-only code must be
// non-empty, not a bare generic word, and match no not-meal pattern.
// extra holds source-specific patterns on top of the shared list.
func isMealName(name string, extra []*regexp.Regexp) bool {
	code := text.NormalizeLetters(name)
	if code == "" || genericNames[code] {
		return false
	}
	for _, re := range notMealPatterns {
		if re.MatchString(code) {
			return false
		}
	}
	for _, re := range extra {
		if re.MatchString(code) {
			return false
		}
	}
	return true
}

// runWindow issues fetches concurrently and gathers their meals. A
// failing fetch is logged and contributes nothing; it never cancels its
// siblings. A panicking fetch (a structurally degenerate page tripping
// the parser) is recovered the same way. Errors returned by a fetch
// func are collected and the first one is returned after all fetches
// finish.
func runWindow(ctx context.Context, source string, n int, fetch func(ctx context.Context, i int) ([]meal.Meal, error)) ([]meal.Meal, error) {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		meals []meal.Meal
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					observability.IncFetchError(source, observability.ErrorParsing)
					slog.Error("parse panicked", "source", source, "panic", r)
				}
			}()
			found, err := fetch(ctx, i)
			if err != nil {
				errs[i] = err
				return
			}
			mu.Lock()
			meals = append(meals, found...)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return meals, err
		}
	}
	return meals, nil
}

// fetchRecovered wraps a single page fetch+parse: transport, status and
// parse failures are logged and yield zero meals, per the error policy.
func fetchRecovered(source string, err error) bool {
	if err == nil {
		return false
	}
	observability.IncFetchError(source, observability.ClassifyFetchError(err))
	slog.Error("fetch failed", "source", source, "error", err)
	return true
}
