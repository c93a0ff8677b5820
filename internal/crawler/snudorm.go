package crawler

import (
	"context"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/wafflestudio/siksha-crawler/internal/httpx"
	"github.com/wafflestudio/siksha-crawler/internal/meal"
	"github.com/wafflestudio/siksha-crawler/internal/observability"
	"github.com/wafflestudio/siksha-crawler/internal/text"
)

const (
	snudormURL        = "https://snudorm.snu.ac.kr/wp-admin/admin-ajax.php"
	snudormPriceURL   = "https://snudorm.snu.ac.kr/food-schedule/"
	snudormRestaurant = "기숙사식당"
	snudormWindow     = 4 // weeks
)

// SnudormCrawler scrapes the dormitory cafeteria's weekly menu table.
// Prices are not on the menu itself; a separate schedule page maps the
// short label printed next to each item to its price.
type SnudormCrawler struct {
	fetcher *httpx.Fetcher
	rules   []meal.Rule
}

func NewSnudormCrawler(fetcher *httpx.Fetcher) *SnudormCrawler {
	return &SnudormCrawler{
		fetcher: fetcher,
		rules: []meal.Rule{
			meal.FindPrice,
			meal.FindParenthesisHash,
			meal.AddRestaurantDetail,
		},
	}
}

func (c *SnudormCrawler) Name() string { return "snudorm" }

func (c *SnudormCrawler) FetchWindow(ctx context.Context) ([]meal.Meal, error) {
	// The price lookup is a prerequisite for every week's parse; failing
	// here fails the whole crawler rather than one fetch.
	prices, err := c.fetchPrices(ctx)
	if err != nil {
		return nil, err
	}

	today := meal.Today()
	return runWindow(ctx, c.Name(), snudormWindow, func(ctx context.Context, i int) ([]meal.Meal, error) {
		weekStart := today.AddDate(0, 0, 7*i)
		form := url.Values{}
		form.Set("action", "metapresso_dorm_food_week_list")
		form.Set("start_week_date", weekStart.Format("2006-01-02"))
		form.Set("target_blog", "39")

		doc, err := c.fetcher.PostForm(ctx, snudormURL, form)
		if fetchRecovered(c.Name(), err) {
			return nil, nil
		}
		observability.IncPagesFetched(c.Name())
		return c.Parse(doc, prices), nil
	})
}

func (c *SnudormCrawler) fetchPrices(ctx context.Context) (map[string]string, error) {
	doc, err := c.fetcher.Get(ctx, snudormPriceURL)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]string)
	doc.Find("div.board > ul > li").Each(func(_ int, li *goquery.Selection) {
		spans := li.Find("span")
		if spans.Length() >= 2 {
			prices[spans.First().Text()] = spans.Eq(1).Text()
		}
	})
	return prices, nil
}

// Parse walks one week's table. The last seven header cells are dates;
// leading cells in each row either name a slot or contribute a
// restaurant-detail label, replicated down rowspan rows.
func (c *SnudormCrawler) Parse(doc *goquery.Document, prices map[string]string) []meal.Meal {
	ths := doc.Find("table > thead > tr > th")
	if ths.Length() < 7 {
		return nil
	}
	var dates []string
	ths.Slice(ths.Length()-7, goquery.ToEnd).Each(func(_ int, th *goquery.Selection) {
		dates = append(dates, th.Text())
	})

	trs := doc.Find("table > tbody > tr")
	restaurantDetail := make([][]string, trs.Length())
	slot := ""

	var meals []meal.Meal
	trs.Each(func(rowIdx int, tr *goquery.Selection) {
		tds := tr.Find("td")
		lead := tds.Length() - 7
		if lead < 0 {
			return
		}

		tds.Slice(0, lead).Each(func(_ int, td *goquery.Selection) {
			span := rowspan(td)
			label := text.Normalize(td.Text())
			if meal.IsSlotLabel(label) {
				slot = label
				return
			}
			for i := 0; i < span && rowIdx+i < len(restaurantDetail); i++ {
				restaurantDetail[rowIdx+i] = append(restaurantDetail[rowIdx+i], td.Text())
			}
		})

		tds.Slice(lead, goquery.ToEnd).Each(func(colIdx int, td *goquery.Selection) {
			ul := td.Find("ul").First()
			if ul.Length() == 0 {
				return
			}
			ul.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
				spans := li.Find("span")
				if spans.Length() == 0 {
					return
				}
				name := spans.Last().Text()
				priceLabel := spans.First().Text()

				m := meal.New(snudormRestaurant, name, meal.Today(), slot)
				if err := m.SetDateText(dates[colIdx]); err != nil {
					return
				}
				if price, ok := prices[priceLabel]; ok {
					m.SetPriceText(price)
				}
				m = meal.Apply(m, meal.Context{
					RestaurantDetail: restaurantDetail[rowIdx],
					FinalRestaurants: map[string]bool{"아워홈": true},
				}, c.rules)
				if isMealName(m.Name, nil) {
					meals = append(meals, m)
				}
			})
		})
	})
	observability.AddMealsFound(c.Name(), len(meals))
	return meals
}

// rowspan reads a td's rowspan attribute; the site writes single digits.
func rowspan(td *goquery.Selection) int {
	attr, ok := td.Attr("rowspan")
	if !ok || attr == "" {
		return 1
	}
	n, err := strconv.Atoi(attr[:1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
