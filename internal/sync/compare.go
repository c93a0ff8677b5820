// Package sync reconciles freshly scraped meals against the persisted
// restaurant and menu tables.
package sync

import (
	"github.com/wafflestudio/siksha-crawler/internal/meal"
	"github.com/wafflestudio/siksha-crawler/internal/store"
	"github.com/wafflestudio/siksha-crawler/internal/text"
)

// CompareRestaurants returns an insertion request for every scraped
// restaurant whose letters-only code is unknown. The code set extends as
// it scans, so duplicates within one batch collapse to one insertion.
func CompareRestaurants(dbCodes []string, meals []meal.Meal) []store.NewRestaurant {
	known := make(map[string]bool, len(dbCodes))
	for _, code := range dbCodes {
		known[code] = true
	}

	var created []store.NewRestaurant
	for _, m := range meals {
		code := text.NormalizeLetters(m.Restaurant)
		if known[code] {
			continue
		}
		created = append(created, store.NewRestaurant{Code: code, NameKR: m.Restaurant})
		known[code] = true
	}
	return created
}

// Flatten maps scraped meals to menu rows: restaurant resolved to its id
// via the persisted code lookup (nil when unknown), the row code derived
// from the letters-only name.
func Flatten(meals []meal.Meal, restaurants []store.Restaurant) []store.Menu {
	ids := make(map[string]int64, len(restaurants))
	for _, r := range restaurants {
		ids[r.Code] = r.ID
	}

	rows := make([]store.Menu, 0, len(meals))
	for _, m := range meals {
		row := store.Menu{
			Code:   text.NormalizeLetters(m.Name),
			Date:   m.Date.Format("2006-01-02"),
			Type:   m.Type,
			NameKR: m.Name,
			Price:  m.Price,
			Etc:    m.EtcJSON(),
		}
		if id, ok := ids[text.NormalizeLetters(m.Restaurant)]; ok {
			rid := id
			row.RestaurantID = &rid
		}
		rows = append(rows, row)
	}
	return rows
}

// Deduplicate keeps the first row per composite key in scan order.
// Pairwise comparison; the batch tops out at a few hundred rows.
func Deduplicate(rows []store.Menu) []store.Menu {
	unique := make([]store.Menu, 0, len(rows))
	for _, row := range rows {
		seen := false
		for _, kept := range unique {
			if sameKey(kept, row) {
				seen = true
				break
			}
		}
		if !seen {
			unique = append(unique, row)
		}
	}
	return unique
}

// CompareMenus diffs the persisted future-dated rows against the scraped
// batch. Edit candidates get their previous detail values retained under
// the shadow fields before being overwritten.
func CompareMenus(dbMenus []store.Menu, meals []meal.Meal, restaurants []store.Restaurant) (inserted, deleted, edited []store.Menu) {
	scraped := Deduplicate(Flatten(meals, restaurants))

	consumed := make([]bool, len(scraped))
	for i := range dbMenus {
		matched := -1
		for j, row := range scraped {
			if sameKey(dbMenus[i], row) {
				matched = j
				break
			}
		}
		if matched < 0 {
			deleted = append(deleted, dbMenus[i])
			continue
		}
		consumed[matched] = true

		row := scraped[matched]
		changed := false
		if !samePrice(dbMenus[i].Price, row.Price) {
			prev := dbMenus[i].Price
			dbMenus[i].PreviousPrice = prev
			dbMenus[i].Price = row.Price
			changed = true
		}
		if dbMenus[i].Etc != row.Etc {
			prev := dbMenus[i].Etc
			dbMenus[i].PreviousEtc = &prev
			dbMenus[i].Etc = row.Etc
			changed = true
		}
		if changed {
			edited = append(edited, dbMenus[i])
		}
	}

	for j, row := range scraped {
		if !consumed[j] {
			inserted = append(inserted, row)
		}
	}
	return inserted, deleted, edited
}

func sameKey(a, b store.Menu) bool {
	return sameID(a.RestaurantID, b.RestaurantID) &&
		a.Code == b.Code && a.Date == b.Date && a.Type == b.Type
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func samePrice(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
