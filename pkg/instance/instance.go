package instance

import (
	"os"
	"strings"
)

var idEnvVars = []string{"DYNO", "HOSTNAME"}

// GetID identifies this process in logs: the platform dyno name, then the
// container hostname, then "local".
func GetID() string {
	for _, key := range idEnvVars {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
