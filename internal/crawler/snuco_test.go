package crawler

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafflestudio/siksha-crawler/internal/meal"
)

func testDate() time.Time {
	return time.Date(2024, 10, 23, 0, 0, 0, 0, meal.Location())
}

func mergeLines(t *testing.T, restaurant string, lines []string) []meal.Meal {
	t.Helper()
	c := NewSnucoCrawler(nil)
	merger := c.newLineMerger(restaurant, testDate(), "중식")
	for _, line := range lines {
		merger.push(line)
	}
	return merger.finish()
}

func TestLineMergeContinuation(t *testing.T) {
	meals := mergeLines(t, "학생회관식당", []string{"셀프코너", "샐러드바"})
	require.Len(t, meals, 1)
	assert.Equal(t, "셀프코너: 샐러드바", meals[0].Name)
}

func TestLineMergeHardStop(t *testing.T) {
	meals := mergeLines(t, "학생회관식당", []string{"제육볶음", "휴무", "김치찌개"})
	require.Len(t, meals, 2)
	assert.Equal(t, "제육볶음", meals[0].Name)
	assert.Equal(t, "김치찌개", meals[1].Name)
}

func TestLineMergeMultiLineDelimiter(t *testing.T) {
	meals := mergeLines(t, "학생회관식당", []string{"셀프코너", "샐러드바", "미니돈까스"})
	require.Len(t, meals, 1)
	// First following line joins via the continuation rule, the rest via
	// the "+" delimiter the 셀프코너 keyword selects.
	assert.Equal(t, "셀프코너: 샐러드바+미니돈까스", meals[0].Name)
}

func TestLineMergeFinisherEndsRun(t *testing.T) {
	meals := mergeLines(t, "학생회관식당", []string{
		"셀프코너",
		"샐러드바",
		"<주문식 메뉴> 치킨까스",
		"제육볶음",
	})
	require.Len(t, meals, 2)
	assert.Equal(t, "셀프코너: 샐러드바+ 치킨까스", meals[0].Name)
	assert.Equal(t, "제육볶음", meals[1].Name)
}

func TestLineMergeBorrowsPrice(t *testing.T) {
	meals := mergeLines(t, "학생회관식당", []string{"셀프코너", "샐러드바 5,500원"})
	require.Len(t, meals, 1)
	require.NotNil(t, meals[0].Price)
	assert.Equal(t, 5500, *meals[0].Price)
}

func TestFacultyBranchExcluded(t *testing.T) {
	meals := mergeLines(t, "자하연식당", []string{"3층 교직메뉴", "제육볶음"})
	require.Len(t, meals, 1)
	assert.Equal(t, "제육볶음", meals[0].Name)
	assert.Equal(t, "자하연식당>3층교직메뉴", meals[0].Restaurant)
}

func TestIsMealName(t *testing.T) {
	valid := []string{"제육볶음", "김치찌개", "셀프코너: 샐러드바"}
	for _, name := range valid {
		assert.True(t, isMealName(name, snucoNotMeal), "name %q", name)
	}

	invalid := []string{
		"",
		"  ",
		"()",
		"메뉴",
		"휴무",
		"금일 휴점",
		"문의 880-5543",
		"배식시간 안내",
		"월2회 제공",
		"혼잡시간 안내",
	}
	for _, name := range invalid {
		assert.False(t, isMealName(name, snucoNotMeal), "name %q", name)
	}
}

const snucoFixture = `
<div class="view-content">
<table>
<thead><tr><th>식당</th><th>아침</th><th>점심</th><th>저녁</th></tr></thead>
<tbody>
<tr>
<td>학생회관식당(880-5543)</td>
<td>&#160;</td>
<td>제육볶음 6,000원
휴무
짜장면 5,500원</td>
<td></td>
</tr>
<tr>
<td>기숙사식당</td>
<td></td>
<td>라면</td>
<td></td>
</tr>
</tbody>
</table>
</div>`

func TestSnucoParseWithoutThead(t *testing.T) {
	html := `<div class="view-content"><table><tbody>
<tr><td>학생회관식당</td><td>제육볶음</td></tr>
</tbody></table></div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	// A header-less table yields nothing rather than tripping the parser.
	assert.Empty(t, NewSnucoCrawler(nil).Parse(doc, testDate()))
}

func TestSnucoParse(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snucoFixture))
	require.NoError(t, err)

	c := NewSnucoCrawler(nil)
	meals := c.Parse(doc, testDate())
	require.Len(t, meals, 2)

	for _, m := range meals {
		assert.Equal(t, "학생회관식당", m.Restaurant)
		assert.Equal(t, meal.Lunch, m.Type)
		assert.Equal(t, testDate(), m.Date)
	}
	assert.Equal(t, "제육볶음", meals[0].Name)
	require.NotNil(t, meals[0].Price)
	assert.Equal(t, 6000, *meals[0].Price)
	assert.Equal(t, "짜장면", meals[1].Name)
	require.NotNil(t, meals[1].Price)
	assert.Equal(t, 5500, *meals[1].Price)
}
