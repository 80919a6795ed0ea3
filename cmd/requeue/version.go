package main

import (
	// Packages
	json "github.com/goccy/go-json"
	version "github.com/mutablelogic/go-requeue/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// VersionJSON returns the build metadata for --version
func VersionJSON() string {
	metadata := map[string]string{
		"name":       version.ExecName(),
		"version":    version.Version(),
		"compiler":   version.Compiler(),
		"source":     version.GitSource,
		"tag":        version.GitTag,
		"branch":     version.GitBranch,
		"hash":       version.GitHash,
		"build_time": version.GoBuildTime,
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
