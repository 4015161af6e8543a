package store

// Config toggles which backends the Store opens
type Config struct {
	PG PGConfig
	CH CHConfig
}

// PGConfig configures the postgres client
type PGConfig struct {
	Enabled bool

	// URL is a pgx compatible connection string
	URL string
}

// CHConfig configures the clickhouse client
type CHConfig struct {
	Enabled bool

	// URL is a clickhouse dsn, i.e. clickhouse://host:9000/db
	URL string

	// ClientName and ClientTag annotate the connection for server side logs
	ClientName string
	ClientTag  string
}
