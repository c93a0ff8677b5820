package crawler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafflestudio/siksha-crawler/internal/meal"
)

func TestRunWindowRecoversPanic(t *testing.T) {
	sample := meal.New("자하연식당", "제육볶음", meal.Today(), "점심")

	meals, err := runWindow(context.Background(), "test", 3, func(_ context.Context, i int) ([]meal.Meal, error) {
		if i == 1 {
			panic("slice bounds out of range")
		}
		return []meal.Meal{sample}, nil
	})
	// The panicking fetch contributes zero meals; its siblings survive.
	require.NoError(t, err)
	assert.Len(t, meals, 2)
}

func TestRunWindowCollectsErrors(t *testing.T) {
	meals, err := runWindow(context.Background(), "test", 2, func(_ context.Context, i int) ([]meal.Meal, error) {
		if i == 0 {
			return nil, context.DeadlineExceeded
		}
		return []meal.Meal{meal.New("자하연식당", "김치찌개", meal.Today(), "점심")}, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, meals, 1)
}
