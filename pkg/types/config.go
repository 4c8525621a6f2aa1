package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend       string `json:"backend" yaml:"backend"`
	DataDir       string `json:"data_dir" yaml:"data_dir"`
	MongoURI      string `json:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `json:"mongo_database" yaml:"mongo_database"`
}

// Supported backend names.
const (
	BackendSQLite  = "sqlite"
	BackendMongoDB = "mongodb"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrMongoURIEmpty    = errors.New("mongo_uri must not be empty")
	ErrMongoDBNameEmpty = errors.New("mongo_database must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:  true,
	BackendMongoDB: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendMongoDB {
		if c.MongoURI == "" {
			return ErrMongoURIEmpty
		}
		if c.MongoDatabase == "" {
			return ErrMongoDBNameEmpty
		}
	}
	return nil
}
