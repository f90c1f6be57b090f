package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikeQuotesMetacharacters(t *testing.T) {
	assert.Equal(t, "k market", escapeLike("k market"))
	assert.Equal(t, `100\% Bike Shop`, escapeLike("100% Bike Shop"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
	assert.Equal(t, `\\\%\_`, escapeLike(`\%_`))
}
