package text_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wafflestudio/siksha-crawler/internal/text"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  김치찌개  ", "김치찌개"},
		{"김치\n찌개", "김치찌개"},
		{"비빔밥()", "비빔밥"},
		{"비빔밥<>", "비빔밥"},
		{"셀프코너:", "셀프코너"},
		{"라면 사리", "라면 사리"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, text.Normalize(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  제육볶음  ",
		"김치찌개 6,900원",
		"비빔밥(#)",
		"셀프코너: 샐러드바",
		"정식 (2층 학생회관)",
		"브레이크 타임 15:00~17:00",
		" ",
		"",
	}
	for _, in := range inputs {
		once := text.Normalize(in)
		assert.Equal(t, once, text.Normalize(once), "input %q", in)

		lettersOnce := text.NormalizeLetters(in)
		assert.Equal(t, lettersOnce, text.NormalizeLetters(lettersOnce), "input %q", in)
	}
}

func TestNormalizeLetters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"셀프코너: 샐러드바", "셀프코너샐러드바"},
		{"정식 (2층 학생회관)", "정식2층학생회관"},
		{"제육+볶음/덮밥", "제육볶음덮밥"},
		{"돈까스 [수제]", "돈까스수제"},
		{"비빔밥 #, *", "비빔밥"},
		{"♣▷ㅁ~", ""},
		{"A-B.C&D", "ABCD"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, text.NormalizeLetters(tc.in), "input %q", tc.in)
	}
}
