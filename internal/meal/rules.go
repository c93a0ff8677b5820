package meal

import (
	"regexp"
	"strings"

	"github.com/wafflestudio/siksha-crawler/internal/text"
)

// Context carries crawler-supplied parameters into the pipeline. Only the
// dormitory crawler populates it today.
type Context struct {
	// RestaurantDetail is the ordered list of hierarchical location labels
	// scraped from a row's header cells.
	RestaurantDetail []string
	// FinalRestaurants holds letters-only codes of terminal facility
	// labels; appending one of them ends the hierarchy.
	FinalRestaurants map[string]bool
}

// Rule is one text-transform step. Rules are pure: they return the
// refined meal and never touch shared state.
type Rule func(m Meal, ctx Context) Meal

// Apply runs rules left-to-right. The order is part of each crawler's
// configuration.
func Apply(m Meal, ctx Context, rules []Rule) Meal {
	for _, rule := range rules {
		m = rule(m, ctx)
	}
	return m
}

var priceRe = regexp.MustCompile(`([1-9]\d{0,2}[,.]?\d00)(.*?원)?`)

// FindPrice pulls a price out of the meal name: 1-3 significant digits,
// optional thousands separator, two trailing zeros, optional currency
// suffix. The matched text is removed from the name.
func FindPrice(m Meal, _ Context) Meal {
	groups := priceRe.FindStringSubmatch(m.Name)
	if groups != nil {
		m.SetPriceText(groups[1])
		m.SetName(priceRe.ReplaceAllString(m.Name, ""))
	}
	return m
}

// FindParenthesisHash strips the (#) vegetarian marker (or the vegetarian
// buffet label) and tags the meal "No meat".
func FindParenthesisHash(m Meal, _ Context) Meal {
	if strings.Contains(m.Name, "(#)") || strings.Contains(m.Name, "< 채식뷔페 >:") {
		m.SetName(strings.ReplaceAll(m.Name, "(#)", ""))
		m.Etc = append(m.Etc, "No meat")
	}
	return m
}

// restaurantDetailRe lists the bracket patterns denoting a sub-location
// inside a meal name, in priority order.
var restaurantDetailRe = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\( ?(\d층.*)\)(.*)$`),
	regexp.MustCompile(`^(.*)\((.*식당) ?\)(.*)$`),
	regexp.MustCompile(`^(.*)< ?(\d층.*)>(.*)$`),
	regexp.MustCompile(`^(.*)<(.*식당) ?>(.*)$`),
	regexp.MustCompile(`^(.*)<(테이크아웃)>(.*)$`),
}

// FindRestaurantDetail moves a bracketed sub-location from the meal name
// into the restaurant hierarchy. At most the first matching pattern
// applies per invocation; later pipeline passes may move further details.
func FindRestaurantDetail(m Meal, _ Context) Meal {
	for _, re := range restaurantDetailRe {
		groups := re.FindStringSubmatch(m.Name)
		if groups == nil {
			continue
		}
		m.SetRestaurant(m.Restaurant + ">" + strings.TrimSpace(groups[2]))
		m.SetName(strings.TrimSpace(groups[1]) + strings.TrimSpace(groups[3]))
		break
	}
	return m
}

var infoMarkerRe = regexp.MustCompile(`(※|►|브레이크 타임).*`)

// RemoveInfoFromMealName truncates the name at the first annotation
// marker; everything from the marker onward is operational notice text.
func RemoveInfoFromMealName(m Meal, _ Context) Meal {
	m.SetName(infoMarkerRe.ReplaceAllString(m.Name, ""))
	return m
}

var restaurantNumberRe = regexp.MustCompile(`\(\d{3}-\d{4}\)`)

// RemoveRestaurantNumber strips phone-number fragments the snuco site
// embeds in restaurant headers.
func RemoveRestaurantNumber(m Meal, _ Context) Meal {
	m.SetRestaurant(restaurantNumberRe.ReplaceAllString(m.Restaurant, ""))
	return m
}

// RemoveMealNumber strips circled-digit enumeration glyphs.
func RemoveMealNumber(m Meal, _ Context) Meal {
	if strings.ContainsAny(m.Name, "①②") {
		m.SetName(strings.ReplaceAll(m.Name, "①", ""))
		m.SetName(strings.ReplaceAll(m.Name, "②", ""))
	}
	return m
}

// AddRestaurantDetail appends the row's location labels to the restaurant
// hierarchy one by one, stopping once a terminal facility label has been
// appended. Models the dormitory table's merged header cells.
func AddRestaurantDetail(m Meal, ctx Context) Meal {
	restaurant := m.Restaurant
	for _, detail := range ctx.RestaurantDetail {
		restaurant = restaurant + ">" + detail
		if ctx.FinalRestaurants[text.NormalizeLetters(detail)] {
			break
		}
	}
	m.SetRestaurant(restaurant)
	return m
}
