package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tripweaver/tripweaver/internal/engine"
)

// PlacesDB is the local SQLite database of curated attractions and
// restaurants backing the places_lookup and sql_query tools.
type PlacesDB struct {
	db *sql.DB
}

// OpenPlacesDB opens the places database and ensures its schema exists.
func OpenPlacesDB(ctx context.Context, dbPath string) (*PlacesDB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open places database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping places database: %w", err)
	}

	p := &PlacesDB{db: db}
	if err := p.initSchema(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Close closes the database.
func (p *PlacesDB) Close() error {
	return p.db.Close()
}

func (p *PlacesDB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS places (
		place_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		city        TEXT NOT NULL,
		category    TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		avg_cost    REAL NOT NULL DEFAULT 0,
		rating      REAL NOT NULL DEFAULT 0,
		location    TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_places_city ON places(city);
	CREATE INDEX IF NOT EXISTS idx_places_category ON places(category);
	`
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize places schema: %w", err)
	}
	return nil
}

// Place is one row of the places table.
type Place struct {
	Name        string  `json:"name"`
	City        string  `json:"city"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	AvgCost     float64 `json:"avg_cost"`
	Rating      float64 `json:"rating"`
	Location    string  `json:"location,omitempty"`
}

// Insert adds a place. Used by seeding and tests.
func (p *PlacesDB) Insert(ctx context.Context, pl Place) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO places (name, city, category, description, avg_cost, rating, location)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pl.Name, pl.City, pl.Category, pl.Description, pl.AvgCost, pl.Rating, pl.Location)
	if err != nil {
		return fmt.Errorf("failed to insert place: %w", err)
	}
	return nil
}

// Lookup finds places by city and optional category, best rated first.
func (p *PlacesDB) Lookup(ctx context.Context, city, category string, limit int) ([]Place, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT name, city, category, description, avg_cost, rating, location
		FROM places WHERE city = ? COLLATE NOCASE`
	args := []any{city}
	if category != "" {
		query += ` AND category = ? COLLATE NOCASE`
		args = append(args, category)
	}
	query += ` ORDER BY rating DESC LIMIT ?`
	args = append(args, limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("places lookup failed: %w", err)
	}
	defer rows.Close()

	var out []Place
	for rows.Next() {
		var pl Place
		if err := rows.Scan(&pl.Name, &pl.City, &pl.Category, &pl.Description, &pl.AvgCost, &pl.Rating, &pl.Location); err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, rows.Err()
}

// Query runs a read-only SQL statement against the places database. Anything
// but a single SELECT is rejected before touching the database.
func (p *PlacesDB) Query(ctx context.Context, stmt string, limit int) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(stmt)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return nil, fmt.Errorf("only SELECT statements are allowed")
	}
	if strings.Contains(trimmed, ";") && strings.Index(trimmed, ";") != len(trimmed)-1 {
		return nil, fmt.Errorf("multiple statements are not allowed")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.db.QueryContext(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() && len(out) < limit {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

const placesLookupSchema = `{
  "type": "object",
  "required": ["city"],
  "properties": {
    "city": {"type": "string", "description": "City to look up"},
    "category": {"type": "string", "description": "Optional: attraction, restaurant, museum, park, ..."},
    "limit": {"type": "integer", "minimum": 1, "maximum": 25}
  }
}`

// PlacesLookupTool wraps PlacesDB.Lookup as an engine tool.
func PlacesLookupTool(db *PlacesDB) engine.Tool {
	return engine.Tool{
		Name:        "places_lookup",
		Description: "Look up curated attractions and restaurants for a city, best rated first.",
		SchemaJSON:  placesLookupSchema,
		Retryable:   true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			city, _ := args["city"].(string)
			if city == "" {
				return "", fmt.Errorf("city is required")
			}
			category, _ := args["category"].(string)
			limit := 0
			if v, ok := args["limit"].(float64); ok {
				limit = int(v)
			}

			places, err := db.Lookup(ctx, city, category, limit)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(places)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}

const sqlQuerySchema = `{
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "description": "A single read-only SELECT statement"},
    "limit": {"type": "integer", "minimum": 1, "maximum": 200}
  }
}`

// SQLQueryTool wraps PlacesDB.Query as an engine tool.
func SQLQueryTool(db *PlacesDB) engine.Tool {
	return engine.Tool{
		Name:        "sql_query",
		Description: "Run a read-only SELECT against the places database (table: places).",
		SchemaJSON:  sqlQuerySchema,
		Retryable:   true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			stmt, _ := args["query"].(string)
			if stmt == "" {
				return "", fmt.Errorf("query is required")
			}
			limit := 0
			if v, ok := args["limit"].(float64); ok {
				limit = int(v)
			}

			records, err := db.Query(ctx, stmt, limit)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(records)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}
