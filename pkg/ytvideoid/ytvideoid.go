// Package ytvideoid extracts YouTube video ids from pasted links.
package ytvideoid

import "regexp"

var videoIdRegexp = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// Extract returns the 11 character video id contained in rawURL.
func Extract(rawURL string) (string, bool) {
	match := videoIdRegexp.FindStringSubmatch(rawURL)
	if match == nil {
		return "", false
	}

	return match[1], true
}
