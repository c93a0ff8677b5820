package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafflestudio/siksha-crawler/internal/meal"
)

const vetFixture = `
<div><table><tbody><tr><td>nav junk</td></tr></tbody></table></div>
<table><tbody>
<tr><th></th><th>점심</th><th>저녁</th></tr>
<tr><td>10월 23일</td><td>제육볶음</td><td>김치찌개</td></tr>
<tr><td>10월 24일</td><td>휴무</td><td>닭갈비</td></tr>
</tbody></table>`

func TestVetParseWithoutHeaderCells(t *testing.T) {
	html := `<div></div>
<table><tbody>
<tr><td>10월 23일</td><td>제육볶음</td></tr>
<tr><td>10월 24일</td><td>김치찌개</td></tr>
</tbody></table>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	// No th slot row means no column mapping; yields nothing rather than
	// tripping the parser.
	assert.Empty(t, NewVetCrawler(nil).Parse(doc))
}

func TestVetParse(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(vetFixture))
	require.NoError(t, err)

	c := NewVetCrawler(nil)
	meals := c.Parse(doc)
	require.Len(t, meals, 3)

	assert.Equal(t, "제육볶음", meals[0].Name)
	assert.Equal(t, "수의대식당", meals[0].Restaurant)
	assert.Equal(t, meal.Lunch, meals[0].Type)
	assert.Equal(t, 23, meals[0].Date.Day())

	assert.Equal(t, "김치찌개", meals[1].Name)
	assert.Equal(t, meal.Dinner, meals[1].Type)

	// 휴무 on the 24th is a closure notice, not a meal.
	assert.Equal(t, "닭갈비", meals[2].Name)
	assert.Equal(t, 24, meals[2].Date.Day())
}
