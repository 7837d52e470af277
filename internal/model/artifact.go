package model

import (
	"fmt"
	"strings"
)

// ArtifactType tells what kind of artifact is handed to a scan function.
type ArtifactType int

const (
	ArtifactFile ArtifactType = iota
	ArtifactURL
)

// String returns the wire name of the artifact type, e.g "file" or "url".
// It is used verbatim in metric tags.
func (t ArtifactType) String() string {
	switch t {
	case ArtifactFile:
		return "file"
	case ArtifactURL:
		return "url"
	default:
		return fmt.Sprintf("artifact(%d)", int(t))
	}
}

func ParseArtifactType(s string) (ArtifactType, error) {
	switch strings.ToLower(s) {
	case "file":
		return ArtifactFile, nil
	case "url":
		return ArtifactURL, nil
	}
	return 0, fmt.Errorf("unknown artifact type %q", s)
}
