package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlaces(t *testing.T) *PlacesDB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenPlacesDB(ctx, filepath.Join(t.TempDir(), "places.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seed := []Place{
		{Name: "Castelo de S. Jorge", City: "Lisbon", Category: "attraction", AvgCost: 15, Rating: 4.6},
		{Name: "Time Out Market", City: "Lisbon", Category: "restaurant", AvgCost: 30, Rating: 4.4},
		{Name: "Ramiro", City: "Lisbon", Category: "restaurant", AvgCost: 45, Rating: 4.7},
		{Name: "Fushimi Inari", City: "Kyoto", Category: "attraction", AvgCost: 0, Rating: 4.8},
	}
	for _, p := range seed {
		require.NoError(t, db.Insert(ctx, p))
	}
	return db
}

func TestLookupByCityAndCategory(t *testing.T) {
	db := testPlaces(t)
	ctx := context.Background()

	got, err := db.Lookup(ctx, "lisbon", "restaurant", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ramiro", got[0].Name, "best rated first")
	assert.Equal(t, "Time Out Market", got[1].Name)

	all, err := db.Lookup(ctx, "Lisbon", "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := db.Lookup(ctx, "Oslo", "", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQueryIsReadOnly(t *testing.T) {
	db := testPlaces(t)
	ctx := context.Background()

	_, err := db.Query(ctx, "DELETE FROM places", 10)
	assert.Error(t, err)

	_, err = db.Query(ctx, "SELECT name FROM places; DROP TABLE places", 10)
	assert.Error(t, err)

	rows, err := db.Query(ctx, "SELECT name, rating FROM places WHERE city = 'Kyoto'", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Fushimi Inari", rows[0]["name"])
}

func TestQueryAppliesLimit(t *testing.T) {
	db := testPlaces(t)

	rows, err := db.Query(context.Background(), "SELECT name FROM places", 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPlacesLookupTool(t *testing.T) {
	db := testPlaces(t)
	tool := PlacesLookupTool(db)

	out, err := tool.Fn(context.Background(), map[string]any{"city": "Lisbon", "category": "attraction"})
	require.NoError(t, err)

	var places []Place
	require.NoError(t, json.Unmarshal([]byte(out), &places))
	require.Len(t, places, 1)
	assert.Equal(t, "Castelo de S. Jorge", places[0].Name)

	_, err = tool.Fn(context.Background(), map[string]any{})
	assert.Error(t, err, "city is required")
}

func TestSQLQueryTool(t *testing.T) {
	db := testPlaces(t)
	tool := SQLQueryTool(db)

	out, err := tool.Fn(context.Background(), map[string]any{
		"query": "SELECT city, count(*) AS n FROM places GROUP BY city ORDER BY city",
	})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Kyoto", rows[0]["city"])
}
