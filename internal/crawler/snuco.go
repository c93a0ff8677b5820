package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wafflestudio/siksha-crawler/internal/httpx"
	"github.com/wafflestudio/siksha-crawler/internal/meal"
	"github.com/wafflestudio/siksha-crawler/internal/observability"
	"github.com/wafflestudio/siksha-crawler/internal/text"
)

const (
	snucoURL        = "https://snuco.snu.ac.kr/ko/foodmenu"
	snucoWindowDays = 30

	facultyMarker     = "교직"
	facultyRestaurant = "자하연식당>3층교직메뉴"
	finisherText      = "<주문식 메뉴>"
)

// snucoNotMeal extends the shared not-meal list with notices specific to
// the snuco pages.
var snucoNotMeal = compilePatterns([]string{
	"셋트메뉴",
	"단품메뉴",
	"사이드메뉴",
	"결제",
	"혼잡시간",
	"말렌카케이크",
	"1조각홀케이크",
	"식사",
})

// Section headers known to be followed by exactly one detail line.
var (
	nextLineNames = []string{
		"봄",
		"소반",
		"콤비메뉴",
		"셀프코너",
		"채식뷔페",
		"추가코너",
		"돈까스비빔면셋트",
		"탄탄비빔면셋트",
	}
	nextLineKeywords = []string{"지역맛집따라잡기", "호구셋트"}
)

// multiLineKeywords associates accumulator keywords with the delimiter
// used to fold following lines in. multiLineFinishers cancels a keyword
// when its finisher co-occurs; finisherText is what gets stripped from
// the accumulated name once the run ends.
var (
	multiLineKeywords = []struct {
		delimiter string
		keywords  []string
	}{
		{"+", []string{"셀프코너", "채식뷔페", "뷔페"}},
		{" / ", []string{"추가코너"}},
	}
	multiLineFinishers = map[string]string{"셀프코너": "주문식메뉴"}
)

// Restaurants whose rows another crawler owns.
var snucoExcludedRestaurants = []string{"기숙사식당"}

// SnucoCrawler scrapes the per-day snuco menu board, the richest of the
// three sources. Its cells hold multi-line entries that have to be folded
// back into records with the line-merge state machine below.
type SnucoCrawler struct {
	fetcher *httpx.Fetcher
	rules   []meal.Rule
}

func NewSnucoCrawler(fetcher *httpx.Fetcher) *SnucoCrawler {
	return &SnucoCrawler{
		fetcher: fetcher,
		rules: []meal.Rule{
			meal.FindPrice,
			meal.FindParenthesisHash,
			meal.RemoveRestaurantNumber,
			meal.FindRestaurantDetail,
			meal.RemoveInfoFromMealName,
			meal.RemoveMealNumber,
		},
	}
}

func (c *SnucoCrawler) Name() string { return "snuco" }

func (c *SnucoCrawler) FetchWindow(ctx context.Context) ([]meal.Meal, error) {
	today := meal.Today()
	return runWindow(ctx, c.Name(), snucoWindowDays, func(ctx context.Context, i int) ([]meal.Meal, error) {
		date := today.AddDate(0, 0, i)
		doc, err := c.fetcher.Get(ctx, snucoMenuURL(date))
		if fetchRecovered(c.Name(), err) {
			return nil, nil
		}
		observability.IncPagesFetched(c.Name())
		return c.Parse(doc, date), nil
	})
}

func snucoMenuURL(date time.Time) string {
	q := url.Values{}
	q.Set("field_menu_date_value_1[value][date]", "")
	q.Set("field_menu_date_value[value][date]",
		fmt.Sprintf("%d/%d/%d", int(date.Month()), date.Day(), date.Year()))
	return snucoURL + "?" + q.Encode()
}

// Parse walks the day's menu table: thead holds the slot labels, each
// tbody row is one restaurant, each remaining cell one slot.
func (c *SnucoCrawler) Parse(doc *goquery.Document, date time.Time) []meal.Meal {
	table := doc.Find("div.view-content > table").First()
	if table.Length() == 0 {
		return nil
	}

	ths := table.Find("thead > tr > th")
	if ths.Length() < 2 {
		return nil
	}
	var slots []string
	ths.Slice(1, goquery.ToEnd).Each(func(_ int, th *goquery.Selection) {
		slots = append(slots, th.Text())
	})

	var meals []meal.Meal
	table.Find("tbody").First().ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.ChildrenFiltered("td")
		if tds.Length() < 2 {
			return
		}
		rowRestaurant := tds.First().Text()
		for _, excluded := range snucoExcludedRestaurants {
			if strings.Contains(rowRestaurant, excluded) {
				return
			}
		}
		tds.Slice(1, goquery.ToEnd).Each(func(colIdx int, td *goquery.Selection) {
			if colIdx >= len(slots) {
				return
			}
			merger := c.newLineMerger(rowRestaurant, date, slots[colIdx])
			for _, line := range splitCellLines(td.Text()) {
				merger.push(line)
			}
			meals = append(meals, merger.finish()...)
		})
	})
	observability.AddMealsFound(c.Name(), len(meals))
	return meals
}

func splitCellLines(cell string) []string {
	var lines []string
	for _, line := range strings.Split(cell, "\n") {
		if line == "" || line == " " {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// lineMerger folds the raw lines of one table cell (one restaurant, one
// slot, one date) into zero or more meals. The accumulator is replaced
// wholesale on each transition so the table below stays testable:
//
//	valid line   + continuation header pending  -> merge with ": "
//	valid line   + active multi-line delimiter  -> merge with delimiter
//	valid line   otherwise                      -> emit pending, start new
//	invalid line + no active delimiter          -> emit pending, clear
//	invalid line + active delimiter             -> ignore line
type lineMerger struct {
	crawler        *SnucoCrawler
	rowRestaurant  string
	restaurant     string
	date           time.Time
	slot           string
	last           *meal.Meal
	nextLineMerged bool
	out            []meal.Meal
}

func (c *SnucoCrawler) newLineMerger(rowRestaurant string, date time.Time, slot string) *lineMerger {
	first := c.candidate(rowRestaurant, "", date, "")
	return &lineMerger{
		crawler:       c,
		rowRestaurant: rowRestaurant,
		restaurant:    first.Restaurant,
		date:          date,
		slot:          slot,
	}
}

func (c *SnucoCrawler) candidate(restaurant, line string, date time.Time, slot string) meal.Meal {
	m := meal.New(restaurant, line, date, slot)
	return meal.Apply(m, meal.Context{}, c.rules)
}

func (l *lineMerger) push(line string) {
	c := l.crawler
	cand := c.candidate(l.restaurant, line, l.date, l.slot)

	if c.validName(cand.Name) {
		// The faculty sub-branch shares 자하연식당's cell; force its
		// canonical path before any merging happens.
		if (cand.Restaurant == "자하연식당" && l.last != nil &&
			(strings.Contains(l.last.Name, facultyMarker) || strings.Contains(l.last.Restaurant, facultyMarker))) ||
			cand.Restaurant == "자하연식당>3층 교직원" {
			cand.SetRestaurant(facultyRestaurant)
		}

		if !l.nextLineMerged && isNextLineKeyword(l.last) {
			l.last = combine(l.last, &cand, ": ")
			l.nextLineMerged = true
			return
		}
		if delim := multiLineDelimiter(l.last); delim != "" {
			l.last = combine(l.last, &cand, delim)
		} else {
			stripFinisher(l.last)
			l.emit(l.last)
			l.last = &cand
		}
		l.nextLineMerged = false
		return
	}

	if multiLineDelimiter(l.last) == "" {
		// Hard separator. If the line switched the sub-restaurant
		// mid-row, re-derive from the row header before closing out.
		if cand.Restaurant != l.restaurant {
			cand = c.candidate(l.rowRestaurant, line, l.date, l.slot)
			l.restaurant = cand.Restaurant
		}
		l.emit(l.last)
		l.last = nil
		l.nextLineMerged = false
	}
}

func (l *lineMerger) finish() []meal.Meal {
	if l.last != nil {
		l.emit(l.last)
		l.last = nil
	}
	return l.out
}

// emit is the validity-gated acceptor. Faculty-restaurant meals are
// dropped here for good, after all merging is done.
func (l *lineMerger) emit(m *meal.Meal) {
	if m == nil {
		return
	}
	if !l.crawler.validName(m.Name) || strings.Contains(m.Name, facultyMarker) {
		return
	}
	l.out = append(l.out, *m)
}

func (c *SnucoCrawler) validName(name string) bool {
	return isMealName(name, snucoNotMeal)
}

func isNextLineKeyword(m *meal.Meal) bool {
	if m == nil {
		return false
	}
	code := text.NormalizeLetters(m.Name)
	for _, name := range nextLineNames {
		if code == name {
			return true
		}
	}
	for _, keyword := range nextLineKeywords {
		if strings.Contains(code, keyword) {
			return true
		}
	}
	return false
}

// multiLineDelimiter returns the joiner an accumulator demands for
// following lines, or "" when the accumulator does not merge. A keyword
// whose finisher already appeared is treated as having no delimiter.
func multiLineDelimiter(m *meal.Meal) string {
	if m == nil {
		return ""
	}
	code := text.NormalizeLetters(m.Name)
	for keyword, finisher := range multiLineFinishers {
		if strings.Contains(code, keyword) && strings.Contains(code, finisher) {
			return ""
		}
	}
	for _, entry := range multiLineKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(code, keyword) {
				return entry.delimiter
			}
		}
	}
	return ""
}

func combine(last, cur *meal.Meal, delimiter string) *meal.Meal {
	if last == nil {
		return cur
	}
	if cur == nil {
		return last
	}
	last.SetName(last.Name + delimiter + cur.Name)
	if last.Price == nil {
		last.Price = cur.Price
	}
	return last
}

// stripFinisher removes the finisher label (and a dangling "+" it leaves
// behind) from an accumulator once its multi-line run has ended.
func stripFinisher(m *meal.Meal) {
	if m == nil || !strings.Contains(m.Name, finisherText) {
		return
	}
	name := strings.ReplaceAll(m.Name, finisherText, "")
	name = strings.TrimSuffix(name, "+")
	m.SetName(name)
}
