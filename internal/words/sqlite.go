package words

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// LoadSQLite reads the word list from a sqlite database at path. The
// database must contain a `words` table with a `word` column.
func LoadSQLite(path string) (*List, error) {
	// The driver creates missing files; a missing dictionary is an error.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("word database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open word database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT word FROM words")
	if err != nil {
		return nil, fmt.Errorf("query word database %s: %w", path, err)
	}
	defer rows.Close()

	list := newList()
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("scan word row: %w", err)
		}
		list.add(word)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read word database %s: %w", path, err)
	}
	return list, nil
}
