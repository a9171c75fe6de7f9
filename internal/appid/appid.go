// Package appid holds the names nutrilens uses for its binary, config
// directory, and environment variables.
package appid

import (
	"os"
	"strings"
)

// Identity describes how the application names itself on disk and in the environment.
type Identity struct {
	BinaryName  string
	ConfigName  string
	EnvPrefix   string
	Description string
}

// EnvIdentityName overrides the config/data directory name.
const EnvIdentityName = "NUTRILENS_APP_NAME"

var defaultIdentity = Identity{
	BinaryName:  "nutrilens",
	ConfigName:  "nutrilens",
	EnvPrefix:   "NUTRILENS",
	Description: "Search the USDA FoodData Central nutrition database from the terminal",
}

// Get returns the application identity.
func Get() Identity {
	identity := defaultIdentity
	if name := strings.TrimSpace(os.Getenv(EnvIdentityName)); name != "" {
		identity.ConfigName = name
	}
	return identity
}
