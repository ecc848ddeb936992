package feed

import (
	"testing"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertEventRoundTrip(t *testing.T) {
	b := types.Bookmark{
		Id:        "abc123",
		Title:     "Example",
		Url:       "https://example.com",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	payload, err := Insert(b).Encode()
	require.NoError(t, err)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, ChangeInsert, decoded.Type)
	require.NotNil(t, decoded.Bookmark)
	assert.Equal(t, b, *decoded.Bookmark)
	assert.Equal(t, b.Id, decoded.Id)
}

func TestDeleteEventCarriesOnlyId(t *testing.T) {
	payload, err := Delete("abc123").Encode()
	require.NoError(t, err)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, ChangeDelete, decoded.Type)
	assert.Equal(t, types.BookmarkId("abc123"), decoded.Id)
	assert.Nil(t, decoded.Bookmark)
}

func TestDecodeBackfillsIdFromBookmark(t *testing.T) {
	payload := []byte(`{"type":"update","bookmark":{"id":"x9","title":"t","url":"https://example.com","createdAt":"2026-01-01T00:00:00Z"}}`)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, types.BookmarkId("x9"), decoded.Id)
}

func TestDecodeRejectsMalformedEvents(t *testing.T) {
	cases := map[string]string{
		"not json":            `{{{`,
		"unknown type":        `{"type":"upsert","id":"a"}`,
		"missing type":        `{"id":"a"}`,
		"insert w/o bookmark": `{"type":"insert"}`,
		"update w/o bookmark": `{"type":"update","id":"a"}`,
		"delete w/o id":       `{"type":"delete"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			assert.Error(t, err)
		})
	}
}
