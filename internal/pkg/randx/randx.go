/*
Package randx generates cryptographically secure random values: hex tokens used as
password salts and collision-free names for uploaded profile photos.
*/
package randx

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Hex returns n random bytes from crypto/rand encoded as a 2n-character hex string.
func Hex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read %d random bytes: %w", n, err)
	}
	return hex.EncodeToString(buf), nil
}

// PhotoFilename returns "<username>_<uuid-hex>.<ext>" with ext lower-cased and stripped of a leading dot.
func PhotoFilename(username, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s.%s", username, id, ext)
}
