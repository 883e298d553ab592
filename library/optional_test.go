package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalTracksPresence(t *testing.T) {
	var u BookUpdate
	require.NoError(t, json.Unmarshal([]byte(`{}`), &u))
	assert.True(t, u.Empty())

	u = BookUpdate{}
	require.NoError(t, json.Unmarshal([]byte(`{"category": null, "total_copies": 3}`), &u))
	assert.True(t, u.Category.Present)
	assert.True(t, u.Category.IsNull())
	require.NotNil(t, u.TotalCopies.Value)
	assert.Equal(t, 3, *u.TotalCopies.Value)
	assert.False(t, u.Title.Present)
	assert.Equal(t, map[string]interface{}{
		"category":         nil,
		"total_copies":     3,
		"available_copies": 3,
	}, u.columns())

	assert.Error(t, json.Unmarshal([]byte(`{"total_copies": "three"}`), &BookUpdate{}))
}

func TestOptionalMarshal(t *testing.T) {
	raw, err := json.Marshal(BookUpdate{Title: Some("T"), Category: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"T","author":null,"category":null,"total_copies":null}`, string(raw))
}
