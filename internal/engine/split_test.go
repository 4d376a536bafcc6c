package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTopLevel(t *testing.T) {
	assert.Equal(t, []string{"a", "(b,c)", "d"}, splitTopLevel("a,(b,c),d", ','))
	assert.Equal(t, []string{"x"}, splitTopLevel("x", ','))
	assert.Equal(t, []string{"", ""}, splitTopLevel(",", ','))
	assert.Nil(t, splitTopLevel("", ','))
}

func TestFindTopLevel(t *testing.T) {
	assert.Equal(t, 5, findTopLevel("(1*2)*3", '*'))
	assert.Equal(t, -1, findTopLevel("(1*2)", '*'))
	assert.Equal(t, 1, findTopLevelAny("6/2*3", "*/"))
}

func TestMatchParen(t *testing.T) {
	assert.Equal(t, 6, matchParen("((a)b)c", 0))
	assert.Equal(t, 3, matchParen("((a)b)c", 1))
	assert.Equal(t, -1, matchParen("(a", 0))
}

func TestSplitTerms(t *testing.T) {
	got := splitTerms("-a+b*-c-(d-e)")
	assert.Equal(t, []signedSource{
		{neg: true, src: "a"},
		{neg: false, src: "b*-c"},
		{neg: true, src: "(d-e)"},
	}, got)

	assert.Equal(t, []signedSource{{src: "d6"}}, splitTerms("d6"))
	assert.Equal(t, []signedSource{{src: "1"}, {src: ""}}, splitTerms("1+"))
}

func TestCheckParens(t *testing.T) {
	assert.NoError(t, checkParens("(a(b)c)"))
	assert.Error(t, checkParens("(a"))
	assert.Error(t, checkParens(")a("))
}

func TestStripSpace(t *testing.T) {
	assert.Equal(t, "2d6+1", stripSpace(" 2d6\t+ 1\n"))
}
