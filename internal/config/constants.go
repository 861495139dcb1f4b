package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the portal's local database
	// (browser sessions, audit trail, task queue).
	DefaultDatabasePath = "./docsafe.db"

	// DefaultAPIURL is the document service base URL used when API_URL is unset.
	DefaultAPIURL = "http://localhost:5000/api"
)
