package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchExactLiteral(t *testing.T) {
	p := Compile("user:42")
	assert.True(t, p.MatchString("user:42"))
	assert.False(t, p.MatchString("user:43"))
	assert.False(t, p.MatchString("user:4"))
}

func TestMatchWildcardSingleByte(t *testing.T) {
	p := Compile("th__")
	assert.True(t, p.MatchString("this"))
	assert.False(t, p.MatchString("the"))
	assert.False(t, p.MatchString("theory"))
}

func TestMatchUntilDelimiter(t *testing.T) {
	// '*' consumes its next pattern byte ('d') as a delimiter at compile
	// time, so "th*day" compiles to: exact 't', exact 'h', until('d'),
	// exact 'a', exact 'y'.
	p := Compile("th*day")
	assert.True(t, p.MatchString("thursday"))
	assert.False(t, p.MatchString("thursda"))
	assert.False(t, p.MatchString("monday"))
}

func TestMatchUntilDrainsToEOF(t *testing.T) {
	p := Compile("th*")
	assert.True(t, p.MatchString("th"))
	assert.True(t, p.MatchString("thousand"))
	assert.False(t, p.MatchString("bath"))
}

func TestMatchRequiresFullConsumption(t *testing.T) {
	p := Compile("a_")
	assert.True(t, p.MatchString("ab"))
	assert.False(t, p.MatchString("abc"))
}

func TestStringReturnsSource(t *testing.T) {
	p := Compile("a*b_c")
	assert.Equal(t, "a*b_c", p.String())
}
