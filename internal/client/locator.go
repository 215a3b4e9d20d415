package client

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBucketPrefix is the locator prefix used by the hosted service.
const DefaultBucketPrefix = "gs://polyword-bucket/"

// StripBucketPrefix returns the object path of locator relative to prefix.
func StripBucketPrefix(prefix, locator string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("bucket prefix is empty")
	}
	rest, ok := strings.CutPrefix(strings.TrimSpace(locator), prefix)
	if !ok {
		return "", fmt.Errorf("locator %q is outside bucket %q", locator, prefix)
	}
	rest = strings.TrimLeft(rest, "/")
	if rest == "" {
		return "", fmt.Errorf("locator %q names no object", locator)
	}
	return rest, nil
}

// escapePath escapes each segment of an object path for use in a URL path.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
