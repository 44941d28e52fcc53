// Package report generates and parses changed-path lists
// embedded in sync log entries and commit messages.
package report

import (
	"log"
	"strings"

	"github.com/byte4ever/export_sync/sync/drift"
)

const (
	begin = "--- changed paths begin ---"
	end   = "--- changed paths end ---"

	mediaPrefix = "media/"
)

// ExtractChanges extracts the list of changed paths from a
// message delimited by begin/end markers.
func ExtractChanges(msg string) []string {
	var paths []string

	betweenMarkers := false

	for _, line := range strings.Split(msg, "\n") {
		switch line {
		case begin:
			betweenMarkers = true
		case end:
			betweenMarkers = false
		default:
			if betweenMarkers {
				paths = append(paths, line)
			}
		}
	}

	if betweenMarkers {
		log.Print("unable to find end marker in message")

		return nil
	}

	return paths
}

// Generate produces a message section listing the changed
// paths of a drift result between begin/end markers. Media
// filenames carry the media/ prefix to keep them apart from
// bundle root files.
func Generate(res drift.Result) string {
	var sb strings.Builder

	sb.WriteByte('\n')
	sb.WriteString(begin)
	sb.WriteByte('\n')

	for _, name := range res.Files {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}

	for _, name := range res.Media {
		sb.WriteString(mediaPrefix + name)
		sb.WriteByte('\n')
	}

	sb.WriteString(end)
	sb.WriteByte('\n')

	return sb.String()
}
