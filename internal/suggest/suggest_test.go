package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"case.open", "case.opne", 2},
		{"Director", "Director", 0},
		{"héllo", "hello", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
		})
	}
}

func TestRankOrdersByDistanceThenContainment(t *testing.T) {
	candidates := []string{"case.close", "case.open", "case.reopen", "party.link"}

	got := Rank("case.opn", candidates, 3)

	assert.Equal(t, []string{"case.open", "case.reopen"}, got)
}

func TestRankTrailingSpaceTypo(t *testing.T) {
	got := Rank("Director ", []string{"Shareholder", "Director", "Secretary"}, 5)

	assert.Equal(t, []string{"Director"}, got)
}

func TestRankSubstringContainment(t *testing.T) {
	got := Rank("jurisdiction", []string{"incorporation-jurisdiction", "name"}, 3)

	assert.Equal(t, []string{"incorporation-jurisdiction"}, got)
}

func TestRankLimitAndDeterminism(t *testing.T) {
	candidates := []string{"ab", "ac", "ad", "ae"}

	first := Rank("aa", candidates, 2)
	second := Rank("aa", candidates, 2)

	assert.Equal(t, []string{"ab", "ac"}, first)
	assert.Equal(t, first, second)
}

func TestRankEmptyQuery(t *testing.T) {
	assert.Nil(t, Rank("  ", []string{"a"}, 3))
}

func TestRankNoLimit(t *testing.T) {
	got := Rank("x", []string{"xa", "xb", "xc", "xd"}, 0)
	assert.Len(t, got, 4)
}

func TestRankDeduplicates(t *testing.T) {
	got := Rank("role", []string{"role", "role", "roles"}, 0)
	assert.Equal(t, []string{"role", "roles"}, got)
}
