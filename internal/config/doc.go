// Package config defines configuration structures for the nrdp CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (NRDP_ prefix), optionally loaded from a .env file
//   - YAML configuration file
//
// Precedence, lowest first: defaults, YAML file, environment, flags. The
// password is never read from YAML.
//
// # Structure
//
//	type Config struct {
//	    BaseURL    string
//	    Username   string
//	    Password   string
//	    Fares      string
//	    Routeing   string
//	    Timetable  string
//	    BufferSize int64
//	    Progress   bool
//	    LogFormat  string
//	    LogLevel   string
//	    HTTP       HTTPConfig
//	    Mirror     MirrorConfig
//	}
package config
