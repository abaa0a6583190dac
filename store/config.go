package store

// Config holds configuration for the Store.
type Config struct {
	// ConsistentRead requests strongly consistent GetItem and Scan reads.
	// Default: true
	ConsistentRead bool

	// PageSize limits the number of items evaluated per Scan request.
	// Zero leaves the limit to DynamoDB (1 MB per page).
	// Default: 0
	// Max: 1000
	PageSize int32
}

// DefaultConfig returns defaults suitable for read-your-writes workloads.
func DefaultConfig() Config {
	return Config{
		ConsistentRead: true,
		PageSize:       0,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.PageSize < 0 {
		c.PageSize = 0
	}
	if c.PageSize > 1000 {
		c.PageSize = 1000
	}
}
