package service

import "github.com/UnendingLoop/ImageDrop/internal/model"

// resolveURL returns the value of the first ["url", value, ...] tag.
// An empty value counts as absence: "" is what legacy callers read as removal.
// Malformed or unknown responses resolve to absence, never to an error.
func resolveURL(resp model.Response) (string, bool) {
	switch r := resp.(type) {
	case model.Tags:
		for _, tag := range r {
			if len(tag) >= 2 && tag[0] == "url" {
				return tag[1], tag[1] != ""
			}
		}
		return "", false
	case model.Malformed:
		return "", false
	default:
		return "", false
	}
}
