package crawler

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/wafflestudio/siksha-crawler/internal/httpx"
	"github.com/wafflestudio/siksha-crawler/internal/meal"
	"github.com/wafflestudio/siksha-crawler/internal/observability"
)

const (
	vetURL        = "https://vet.snu.ac.kr/금주의-식단/"
	vetRestaurant = "수의대식당"
)

// VetCrawler scrapes the veterinary school's static weekly menu page.
// One table cell is one meal; none of the line-merge machinery applies.
type VetCrawler struct {
	fetcher *httpx.Fetcher
}

func NewVetCrawler(fetcher *httpx.Fetcher) *VetCrawler {
	return &VetCrawler{fetcher: fetcher}
}

func (c *VetCrawler) Name() string { return "vet" }

func (c *VetCrawler) FetchWindow(ctx context.Context) ([]meal.Meal, error) {
	return runWindow(ctx, c.Name(), 1, func(ctx context.Context, _ int) ([]meal.Meal, error) {
		doc, err := c.fetcher.Get(ctx, vetURL)
		if fetchRecovered(c.Name(), err) {
			return nil, nil
		}
		observability.IncPagesFetched(c.Name())
		return c.Parse(doc), nil
	})
}

// Parse reads the menu table: the first row's th cells are slot labels,
// each following row starts with a date cell.
func (c *VetCrawler) Parse(doc *goquery.Document) []meal.Meal {
	// The page opens with a navigation div that also contains a table.
	doc.Find("div").First().Remove()

	trs := doc.Find("table > tbody > tr")
	if trs.Length() < 2 {
		return nil
	}

	ths := trs.First().Find("th")
	if ths.Length() < 2 {
		return nil
	}
	var slots []string
	ths.Slice(1, goquery.ToEnd).Each(func(_ int, th *goquery.Selection) {
		slots = append(slots, th.Text())
	})

	var meals []meal.Meal
	trs.Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 2 {
			return
		}
		dateText := tds.First().Text()
		tds.Slice(1, goquery.ToEnd).Each(func(colIdx int, td *goquery.Selection) {
			if colIdx >= len(slots) {
				return
			}
			m := meal.New(vetRestaurant, td.Text(), meal.Today(), slots[colIdx])
			if err := m.SetDateText(dateText); err != nil {
				return
			}
			if isMealName(m.Name, nil) {
				meals = append(meals, m)
			}
		})
	})
	observability.AddMealsFound(c.Name(), len(meals))
	return meals
}
