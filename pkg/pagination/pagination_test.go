package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 0, Size: DefaultSize}, Params{Page: -3}.Normalize())
	assert.Equal(t, Params{Page: 2, Size: MaxSize}, Params{Page: 2, Size: 1000}.Normalize())
	assert.Equal(t, 24, Params{Page: 2, Size: 12}.Offset())
}

func TestNewPage(t *testing.T) {
	page := NewPage([]string{"a", "b"}, Params{Page: 1, Size: 2}, 5)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Items, 2)

	empty := NewPage[string](nil, Params{}, 0)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
	assert.Equal(t, DefaultSize, empty.Size)
}

func TestParseSort(t *testing.T) {
	allowed := map[string]string{"price": "price", "createdAt": "created_at"}
	fallback := Sort{Field: "created_at", Desc: true}

	got, err := ParseSort("", allowed, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = ParseSort("price,desc", allowed, fallback)
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: "price", Desc: true}, got)
	assert.Equal(t, "price DESC", got.Clause())

	got, err = ParseSort("createdAt", allowed, fallback)
	require.NoError(t, err)
	assert.Equal(t, "created_at ASC", got.Clause())

	_, err = ParseSort("password,asc", allowed, fallback)
	assert.Error(t, err)

	_, err = ParseSort("price,sideways", allowed, fallback)
	assert.Error(t, err)
}
