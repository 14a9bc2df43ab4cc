package config

const (
	DefaultDatabasePath = "./librarydesk.db"

	// MinBcryptCost is the lowest accepted work factor for stored password hashes.
	MinBcryptCost = 10

	DefaultLoanDays = 14

	DefaultMetadataBaseURL = "https://openlibrary.org"
)
