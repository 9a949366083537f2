package objectkey

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const alphanum = "abcdefghijklmnopqrstuvwxyz0123456789"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Sanitize strips path components and replaces characters that are unsafe in
// object keys. Empty results become "file".
func Sanitize(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	return base
}

// New derives a collision-resistant storage key scoped under the owner's
// prefix: documents/{userID}/{epochMillis}-{randomSuffix}-{sanitizedName}.
func New(userID, filename string) string {
	suffix := make([]byte, 8)
	for i := range suffix {
		suffix[i] = alphanum[rand.Intn(len(alphanum))]
	}
	return fmt.Sprintf("documents/%s/%d-%s-%s",
		userID, time.Now().UnixMilli(), string(suffix), Sanitize(filename))
}
