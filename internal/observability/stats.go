package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	PagesFetched   uint64            `json:"pages_fetched"`
	MealsFound     uint64            `json:"meals_found"`
	ErrorsTotal    uint64            `json:"errors_total"`
	MealsBySource  map[string]uint64 `json:"meals_by_source,omitempty"`
	PagesBySource  map[string]uint64 `json:"pages_by_source,omitempty"`
	ErrorsBySource map[string]uint64 `json:"errors_by_source,omitempty"`
	ErrorsByKind   map[string]uint64 `json:"errors_by_kind,omitempty"`
}

var (
	pagesFetched uint64
	mealsFound   uint64
	errorsTotal  uint64

	statsMu        sync.Mutex
	mealsBySource  = map[string]uint64{}
	pagesBySource  = map[string]uint64{}
	errorsBySource = map[string]uint64{}
	errorsByKind   = map[string]uint64{}
)

func IncPagesFetched(source string) {
	atomic.AddUint64(&pagesFetched, 1)
	statsMu.Lock()
	pagesBySource[source]++
	statsMu.Unlock()
}

func AddMealsFound(source string, n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&mealsFound, uint64(n))
	statsMu.Lock()
	mealsBySource[source] += uint64(n)
	statsMu.Unlock()
}

func IncFetchError(source, kind string) {
	if kind == "" {
		kind = ErrorUnknown
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsBySource[source]++
	errorsByKind[kind]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	mealsCopy := copyMap(mealsBySource)
	pagesCopy := copyMap(pagesBySource)
	errSourceCopy := copyMap(errorsBySource)
	errKindCopy := copyMap(errorsByKind)
	statsMu.Unlock()

	return StatsSnapshot{
		PagesFetched:   atomic.LoadUint64(&pagesFetched),
		MealsFound:     atomic.LoadUint64(&mealsFound),
		ErrorsTotal:    atomic.LoadUint64(&errorsTotal),
		MealsBySource:  mealsCopy,
		PagesBySource:  pagesCopy,
		ErrorsBySource: errSourceCopy,
		ErrorsByKind:   errKindCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
