// Package meal defines the structured meal record produced by the site
// crawlers and the normalization pipeline that refines it.
package meal

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/wafflestudio/siksha-crawler/internal/text"
)

// Meal slot codes.
const (
	Breakfast = "BR"
	Lunch     = "LU"
	Dinner    = "DN"
)

// slotSynonyms maps source labels (already normalized) to slot codes. The
// sites mix English codes and Korean meal-slot words.
var slotSynonyms = map[string]string{
	Breakfast: Breakfast,
	Lunch:     Lunch,
	Dinner:    Dinner,
	"아침":      Breakfast,
	"점심":      Lunch,
	"저녁":      Dinner,
	"중식":      Lunch,
	"석식":      Dinner,
}

var (
	locOnce sync.Once
	loc     *time.Location
)

// Location returns the Asia/Seoul timezone all menu dates live in.
func Location() *time.Location {
	locOnce.Do(func() {
		var err error
		loc, err = time.LoadLocation("Asia/Seoul")
		if err != nil {
			loc = time.FixedZone("KST", 9*60*60)
		}
	})
	return loc
}

// Today returns the current calendar date in Asia/Seoul.
func Today() time.Time {
	now := time.Now().In(Location())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location())
}

// Meal is one menu offering at one restaurant, on one date, for one slot.
// Restaurant and Name are always normalized; raw HTML text never lands
// here directly.
type Meal struct {
	Restaurant string
	Name       string
	Date       time.Time
	Type       string
	Price      *int
	Etc        []string
}

// New builds a Meal with every field passed through its setter.
func New(restaurant, name string, date time.Time, slot string) Meal {
	var m Meal
	m.SetRestaurant(restaurant)
	m.SetName(name)
	m.Date = date
	m.SetType(slot)
	m.Etc = []string{}
	return m
}

func (m *Meal) SetRestaurant(s string) {
	m.Restaurant = text.Normalize(s)
}

func (m *Meal) SetName(s string) {
	m.Name = text.Normalize(s)
}

var dateNumRe = regexp.MustCompile(`\d{1,2}`)

// SetDateText extracts the first two 1-2 digit groups from a free-text
// fragment and interprets them as month and day in the current year.
func (m *Meal) SetDateText(s string) error {
	nums := dateNumRe.FindAllString(s, 2)
	if len(nums) < 2 {
		return fmt.Errorf("meal: no date in %q", s)
	}
	month, _ := strconv.Atoi(nums[0])
	day, _ := strconv.Atoi(nums[1])
	m.Date = time.Date(Today().Year(), time.Month(month), day, 0, 0, 0, 0, Location())
	return nil
}

// SetType maps a source slot label to one of the slot codes. Unrecognized
// labels leave the type absent.
func (m *Meal) SetType(label string) {
	m.Type = slotSynonyms[text.NormalizeLetters(label)]
}

// IsSlotLabel reports whether a table cell holds a meal-slot label rather
// than menu content.
func IsSlotLabel(label string) bool {
	_, ok := slotSynonyms[text.Normalize(label)]
	return ok
}

func (m *Meal) SetPrice(v int) {
	m.Price = &v
}

var nonDigitRe = regexp.MustCompile(`\D`)

// SetPriceText strips all non-digit characters and parses the remainder.
// Empty input leaves the price absent.
func (m *Meal) SetPriceText(s string) {
	if s == "" {
		m.Price = nil
		return
	}
	v, err := strconv.Atoi(nonDigitRe.ReplaceAllString(s, ""))
	if err != nil {
		m.Price = nil
		return
	}
	m.Price = &v
}

// EtcJSON serializes the annotation tags as a JSON array string, the form
// the menu table stores.
func (m *Meal) EtcJSON() string {
	b, err := json.Marshal(m.Etc)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func (m *Meal) String() string {
	price := "-"
	if m.Price != nil {
		price = strconv.Itoa(*m.Price)
	}
	return fmt.Sprintf("%s> %s | %s | %s | %s | %s",
		m.Type, m.Name, m.Restaurant, m.Date.Format("2006-01-02"), price, m.EtcJSON())
}
