package collector

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/user/embed-images/internal/resolver"
)

// mimeType guesses (major, minor) from the extension of ref.
// Unknown extensions yield two empty strings.
func mimeType(ref string) (string, string) {
	ctype := mime.TypeByExtension(path.Ext(refPath(ref)))
	if ctype == "" {
		return "", ""
	}
	mediaType, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		return "", ""
	}
	major, minor, ok := strings.Cut(mediaType, "/")
	if !ok {
		return "", ""
	}
	return major, minor
}

// baseName is the filename used to identify an attachment. A URL without a
// path component is identified by its host.
func baseName(ref string) string {
	if resolver.IsURL(ref) {
		if u, err := url.Parse(ref); err == nil && strings.Trim(u.Path, "/") == "" {
			return u.Hostname()
		}
	}
	return path.Base(refPath(ref))
}

// refPath drops the query and fragment of URL references.
func refPath(ref string) string {
	if resolver.IsURL(ref) {
		if u, err := url.Parse(ref); err == nil {
			return u.Path
		}
	}
	return ref
}
