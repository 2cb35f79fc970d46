package commons

import (
	"encoding/json"
	"fmt"
)

var (
	serviceVersion string = "v0.1.0"
	gitCommit      string
	buildDate      string
)

// VersionInfo object contains version related info
type VersionInfo struct {
	ServiceVersion string `json:"serviceVersion"`
	GitCommit      string `json:"commit"`
	BuildDate      string `json:"buildDate"`
}

// GetVersion returns VersionInfo object
func GetVersion() VersionInfo {
	return VersionInfo{
		ServiceVersion: serviceVersion,
		GitCommit:      gitCommit,
		BuildDate:      buildDate,
	}
}

// GetVersionJSON returns VersionInfo in JSON string
func GetVersionJSON() (string, error) {
	versionInfo := GetVersion()
	bytes, err := json.MarshalIndent(&versionInfo, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal version info - %v", err)
	}

	return string(bytes), nil
}
