package meal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafflestudio/siksha-crawler/internal/meal"
)

func TestSetDateText(t *testing.T) {
	var m meal.Meal
	require.NoError(t, m.SetDateText("10월 23일 (월)"))
	assert.Equal(t, time.Month(10), m.Date.Month())
	assert.Equal(t, 23, m.Date.Day())
	assert.Equal(t, meal.Today().Year(), m.Date.Year())

	require.NoError(t, m.SetDateText("3/7"))
	assert.Equal(t, time.March, m.Date.Month())
	assert.Equal(t, 7, m.Date.Day())

	assert.Error(t, m.SetDateText("월요일"))
	assert.Error(t, m.SetDateText(""))
}

func TestSetType(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"아침", meal.Breakfast},
		{"점심", meal.Lunch},
		{"저녁", meal.Dinner},
		{"중식", meal.Lunch},
		{"석식", meal.Dinner},
		{" 중식 ", meal.Lunch},
		{"LU", meal.Lunch},
		{"브런치", ""},
		{"", ""},
	}
	for _, tc := range cases {
		var m meal.Meal
		m.SetType(tc.label)
		assert.Equal(t, tc.want, m.Type, "label %q", tc.label)
	}
}

func TestSetPriceText(t *testing.T) {
	var m meal.Meal

	m.SetPriceText("6,900원")
	require.NotNil(t, m.Price)
	assert.Equal(t, 6900, *m.Price)

	m.SetPriceText("")
	assert.Nil(t, m.Price)

	m.SetPriceText("가격 문의")
	assert.Nil(t, m.Price)
}

func TestNewNormalizesFields(t *testing.T) {
	m := meal.New(" 학생회관식당\n", " 제육볶음 ", meal.Today(), "중식")
	assert.Equal(t, "학생회관식당", m.Restaurant)
	assert.Equal(t, "제육볶음", m.Name)
	assert.Equal(t, meal.Lunch, m.Type)
	assert.Equal(t, "[]", m.EtcJSON())
}

func TestFindPrice(t *testing.T) {
	m := meal.New("식당", "김치찌개 6,900원", meal.Today(), "중식")
	m = meal.FindPrice(m, meal.Context{})
	require.NotNil(t, m.Price)
	assert.Equal(t, 6900, *m.Price)
	assert.Equal(t, "김치찌개", m.Name)
}

func TestFindParenthesisHash(t *testing.T) {
	m := meal.New("식당", "비빔밥(#)", meal.Today(), "중식")
	m = meal.FindParenthesisHash(m, meal.Context{})
	assert.Equal(t, "비빔밥", m.Name)
	assert.Equal(t, []string{"No meat"}, m.Etc)

	plain := meal.New("식당", "비빔밥", meal.Today(), "중식")
	plain = meal.FindParenthesisHash(plain, meal.Context{})
	assert.Empty(t, plain.Etc)
}

func TestFindRestaurantDetail(t *testing.T) {
	cases := []struct {
		name           string
		wantName       string
		wantRestaurant string
	}{
		{"정식 (2층 학생회관)", "정식", "식당>2층 학생회관"},
		{"정식 (예술계식당)", "정식", "식당>예술계식당"},
		{"정식 <3층 아워홈>", "정식", "식당>3층 아워홈"},
		{"정식 <테이크아웃>", "정식", "식당>테이크아웃"},
		{"정식", "정식", "식당"},
	}
	for _, tc := range cases {
		m := meal.New("식당", tc.name, meal.Today(), "중식")
		m = meal.FindRestaurantDetail(m, meal.Context{})
		assert.Equal(t, tc.wantName, m.Name, "input %q", tc.name)
		assert.Equal(t, tc.wantRestaurant, m.Restaurant, "input %q", tc.name)
	}
}

func TestRemoveInfoFromMealName(t *testing.T) {
	m := meal.New("식당", "제육볶음 ※ 일요일 제외", meal.Today(), "중식")
	m = meal.RemoveInfoFromMealName(m, meal.Context{})
	assert.Equal(t, "제육볶음", m.Name)

	m = meal.New("식당", "짜장면 브레이크 타임 15시", meal.Today(), "중식")
	m = meal.RemoveInfoFromMealName(m, meal.Context{})
	assert.Equal(t, "짜장면", m.Name)
}

func TestRemoveRestaurantNumber(t *testing.T) {
	m := meal.New("자하연식당(880-5543)", "제육볶음", meal.Today(), "중식")
	m = meal.RemoveRestaurantNumber(m, meal.Context{})
	assert.Equal(t, "자하연식당", m.Restaurant)
}

func TestRemoveMealNumber(t *testing.T) {
	m := meal.New("식당", "① 제육볶음", meal.Today(), "중식")
	m = meal.RemoveMealNumber(m, meal.Context{})
	assert.Equal(t, "제육볶음", m.Name)
}

func TestAddRestaurantDetail(t *testing.T) {
	ctx := meal.Context{
		RestaurantDetail: []string{"A동", "아워홈", "무시됨"},
		FinalRestaurants: map[string]bool{"아워홈": true},
	}
	m := meal.New("기숙사식당", "제육볶음", meal.Today(), "중식")
	m = meal.AddRestaurantDetail(m, ctx)
	assert.Equal(t, "기숙사식당>A동>아워홈", m.Restaurant)
}

func TestApplyOrder(t *testing.T) {
	rules := []meal.Rule{meal.FindPrice, meal.FindParenthesisHash, meal.FindRestaurantDetail}
	m := meal.New("식당", "비빔밥(#) 5,500원 (2층 학생회관)", meal.Today(), "중식")
	m = meal.Apply(m, meal.Context{}, rules)
	require.NotNil(t, m.Price)
	assert.Equal(t, 5500, *m.Price)
	assert.Equal(t, []string{"No meat"}, m.Etc)
	assert.Equal(t, "식당>2층 학생회관", m.Restaurant)
	assert.Equal(t, "비빔밥", m.Name)
}
