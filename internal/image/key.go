package image

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// KeySeparator splits the random token from the file name in a key. Tokens
// are hex, so the first separator always ends the token.
const KeySeparator = '_'

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces name to a safe, lower-case ASCII file name. It
// never returns path separators, control characters or whitespace, and
// applying it twice gives the same result as applying it once.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	name = b.String()

	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return strings.ToLower(name)
}

// MakeKey derives a unique storage key for an uploaded file:
// "<32 hex chars>_<sanitized name>". The key keeps the extension of the
// original name even when sanitizing would have eaten it.
func MakeKey(originalFilename string) (string, error) {
	token, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate key token: %w", err)
	}

	name := SanitizeFilename(originalFilename)
	if ext := SanitizeFilename(Extension(originalFilename)); ext != "" && Extension(name) != ext {
		if name == "" {
			name = "image"
		}
		name += "." + ext
	}
	if name == "" {
		name = "image"
	}

	return hex.EncodeToString(token[:]) + string(KeySeparator) + name, nil
}

// DisplayName strips the random token from a key. Keys without a separator
// are returned unchanged.
func DisplayName(key string) string {
	if i := strings.IndexByte(key, KeySeparator); i >= 0 {
		return key[i+1:]
	}
	return key
}
