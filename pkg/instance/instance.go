// Package instance names the running process in logs.
package instance

import (
	"os"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/env"
)

const (
	// EnvInstanceID overrides the detected instance name.
	EnvInstanceID = "DIAGNOSIS_INSTANCE_ID"
	// EnvPodName is set by the container platform.
	EnvPodName = "POD_NAME"

	fallbackID = "api-0"
)

// GetID returns the configured instance id or pod name, then the host name,
// then a fixed default.
func GetID() string {
	if id := env.First("", EnvInstanceID, EnvPodName); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
