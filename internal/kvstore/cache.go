package kvstore

import (
	"database/sql"
	"sync"
)

// preparedStatementCache caches prepared statements so the hot key/value
// queries are only compiled once per connection.
type preparedStatementCache struct {
	mu         sync.RWMutex
	statements map[string]*sql.Stmt
	db         *sql.DB
}

func newPreparedStatementCache(db *sql.DB) *preparedStatementCache {
	return &preparedStatementCache{
		statements: make(map[string]*sql.Stmt),
		db:         db,
	}
}

// get retrieves or creates a prepared statement for query.
func (c *preparedStatementCache) get(query string) (*sql.Stmt, error) {
	c.mu.RLock()
	if stmt, ok := c.statements[query]; ok {
		c.mu.RUnlock()
		return stmt, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock
	if stmt, ok := c.statements[query]; ok {
		return stmt, nil
	}

	stmt, err := c.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	c.statements[query] = stmt
	return stmt, nil
}

// close closes all cached statements and clears the cache.
func (c *preparedStatementCache) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for _, stmt := range c.statements {
		if err := stmt.Close(); err != nil {
			lastErr = err
		}
	}
	c.statements = make(map[string]*sql.Stmt)
	return lastErr
}
