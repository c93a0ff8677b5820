package sync

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wafflestudio/siksha-crawler/internal/crawler"
	"github.com/wafflestudio/siksha-crawler/internal/meal"
	"github.com/wafflestudio/siksha-crawler/internal/notify"
	"github.com/wafflestudio/siksha-crawler/internal/store"
)

// The production entry point never fails loudly; it reports one of these.
const (
	StatusSucceeded = "Crawling has been successfully done"
	StatusFailed    = "Crawling has been failed"
)

// Job owns the full fetch, diff, write, notify cycle.
type Job struct {
	store    *store.Store
	notifier *notify.Notifier
	crawlers []crawler.Crawler

	// Menu deletion is computed but suppressed unless enabled; destructive
	// writes stay off while the sources are volatile.
	enableDeletion bool
}

func NewJob(st *store.Store, notifier *notify.Notifier, crawlers []crawler.Crawler, enableDeletion bool) *Job {
	return &Job{
		store:          st,
		notifier:       notifier,
		crawlers:       crawlers,
		enableDeletion: enableDeletion,
	}
}

// Run executes the pipeline and returns the status string. Errors are
// handled here: the open transaction rolls back, a failure notification
// goes out, and the failure status is returned.
func (j *Job) Run(ctx context.Context) string {
	slog.Info("start crawling")
	if err := j.run(ctx); err != nil {
		slog.Error("crawling failed", "error", err)
		j.notifier.Send(ctx, StatusFailed)
		return StatusFailed
	}
	j.notifier.Send(ctx, StatusSucceeded)
	return StatusSucceeded
}

func (j *Job) run(ctx context.Context) error {
	meals, err := j.Collect(ctx)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	today := meal.Today()
	current := meals[:0:0]
	for _, m := range meals {
		if !m.Date.Before(today) {
			current = append(current, m)
		}
	}
	slog.Info("crawl finished", "meals", len(meals), "current", len(current))

	if err := j.restaurantsTransaction(ctx, current); err != nil {
		return fmt.Errorf("restaurants transaction: %w", err)
	}
	if err := j.menusTransaction(ctx, current, today.Format("2006-01-02")); err != nil {
		return fmt.Errorf("menus transaction: %w", err)
	}
	return nil
}

// Collect runs every crawler concurrently and gathers their meals. The
// first crawler-level error surfaces after all of them finish.
func (j *Job) Collect(ctx context.Context) ([]meal.Meal, error) {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		meals []meal.Meal
		errs  = make([]error, len(j.crawlers))
	)
	for i, c := range j.crawlers {
		wg.Add(1)
		go func(i int, c crawler.Crawler) {
			defer wg.Done()
			found, err := c.FetchWindow(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", c.Name(), err)
				return
			}
			mu.Lock()
			meals = append(meals, found...)
			mu.Unlock()
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return meals, nil
}

func (j *Job) restaurantsTransaction(ctx context.Context, meals []meal.Meal) error {
	tx, err := j.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	codes, err := j.store.RestaurantCodes(ctx, tx)
	if err != nil {
		return err
	}
	created := CompareRestaurants(codes, meals)
	j.notifier.NewRestaurants(ctx, created)

	if err := j.store.InsertRestaurants(ctx, tx, created); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("restaurants checked", "created", len(created))
	return nil
}

func (j *Job) menusTransaction(ctx context.Context, meals []meal.Meal, today string) error {
	tx, err := j.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	// Fresh read so just-inserted restaurants resolve.
	restaurants, err := j.store.Restaurants(ctx, tx)
	if err != nil {
		return err
	}
	dbMenus, err := j.store.FutureMenus(ctx, tx, today)
	if err != nil {
		return err
	}

	inserted, deleted, edited := CompareMenus(dbMenus, meals, restaurants)

	j.notifier.DeletedMenus(ctx, deleted)
	if j.enableDeletion && len(deleted) > 0 {
		ids := make([]int64, 0, len(deleted))
		for _, m := range deleted {
			ids = append(ids, m.ID)
		}
		if err := j.store.DeleteMenus(ctx, tx, ids); err != nil {
			return err
		}
	}

	j.notifier.NewMenus(ctx, inserted)
	if err := j.store.InsertMenus(ctx, tx, inserted); err != nil {
		return err
	}

	j.notifier.EditedMenus(ctx, edited)
	if err := j.store.UpdateMenus(ctx, tx, edited); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("menus checked",
		"inserted", len(inserted), "deleted", len(deleted), "edited", len(edited),
		"deletion_enabled", j.enableDeletion)
	return nil
}

// rollback after commit is a no-op error; anything else is worth a log
// line but nothing more.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Error("rollback failed", "error", err)
	}
}
