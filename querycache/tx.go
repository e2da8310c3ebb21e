package querycache

import "context"

// Begin starts a transaction on the database.
func (c *Client) Begin(ctx context.Context) error {
	if err := c.db.Begin(ctx); err != nil {
		return newDBError("begin", err)
	}
	return nil
}

// Rollback aborts the current transaction.
func (c *Client) Rollback(ctx context.Context) error {
	if err := c.db.Rollback(ctx); err != nil {
		return newDBError("rollback", err)
	}
	return nil
}

// Commit commits the current transaction and reports success. The failure is
// logged and written to opts.Trace.
func (c *Client) Commit(ctx context.Context, opts CommitOptions) bool {
	if err := c.db.Commit(ctx); err != nil {
		dbErr := newDBError("commit", err)
		c.logger.Warn("querycache: commit failed", c.fields(opts.Trace, Fields{"error": dbErr.Message}))
		opts.Trace.Add("commit failed: %s", dbErr.Message)
		return false
	}
	return true
}

// Connect forwards connection settings to databases implementing Connector.
// Other databases accept the call as a no-op.
func (c *Client) Connect(ctx context.Context, settings map[string]any) error {
	conn, ok := c.db.(Connector)
	if !ok {
		return nil
	}
	if err := conn.Connect(ctx, settings); err != nil {
		return newDBError("connect", err)
	}
	return nil
}
