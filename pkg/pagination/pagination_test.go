package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClampsLimit(t *testing.T) {
	assert.Equal(t, Page{Limit: DefaultLimit}, Normalize(0, 0))
	assert.Equal(t, Page{Limit: DefaultLimit}, Normalize(-3, 0))
	assert.Equal(t, Page{Limit: DefaultLimit}, Normalize(MaxLimit+1, 0))
	assert.Equal(t, Page{Limit: MaxLimit}, Normalize(MaxLimit, 0))
	assert.Equal(t, Page{Limit: 25}, Normalize(25, 0))
}

func TestNormalizeClampsOffset(t *testing.T) {
	assert.Equal(t, Page{Limit: 5, Offset: 0}, Normalize(5, -1))
	assert.Equal(t, Page{Limit: 5, Offset: 40}, Normalize(5, 40))
}
