package poster

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ContentHash is the persistent cache key of a poster: sha256 over its bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func urlHash(rawURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(rawURL)))
	return hex.EncodeToString(sum[:])
}

// CacheFilename names a downloaded poster after the hash of its source URL.
func CacheFilename(hash string, extension string) string {
	extension = strings.ToLower(strings.TrimSpace(extension))
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return strings.ToLower(strings.TrimSpace(hash)) + extension
}

// hashFromCacheFilename returns the lowercase hash a cache filename was named
// after, or "" when the name is not exactly "<hash><ext>".
func hashFromCacheFilename(filename string) string {
	name := strings.TrimSpace(filename)
	if name == "" {
		return ""
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	if !isValidHash(base) {
		return ""
	}

	return strings.ToLower(base)
}

// findCachedFile returns the cached download for hash, whatever its extension.
// Partial writes and other stray names sharing the prefix are skipped.
func findCachedFile(cacheDir string, hash string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(cacheDir, hash+".*"))
	if err != nil {
		return "", false
	}

	for _, match := range matches {
		if hashFromCacheFilename(filepath.Base(match)) != hash {
			continue
		}
		if info, err := os.Stat(match); err == nil && !info.IsDir() {
			return match, true
		}
	}
	return "", false
}

var extensionsByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// extensionFor picks a file extension from the response header, falling back
// to sniffing the payload.
func extensionFor(contentType string, payload []byte) string {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if extension, ok := extensionsByContentType[mediaType]; ok {
		return extension
	}

	if isAVIF(payload) {
		return ".avif"
	}

	if extension, ok := extensionsByContentType[http.DetectContentType(payload)]; ok {
		return extension
	}
	return ".img"
}

func isAVIF(payload []byte) bool {
	if len(payload) < 12 || string(payload[4:8]) != "ftyp" {
		return false
	}
	brand := string(payload[8:12])
	return brand == "avif" || brand == "avis"
}

func isValidHash(value string) bool {
	if len(value) != 64 {
		return false
	}

	for _, char := range value {
		if (char < '0' || char > '9') && (char < 'a' || char > 'f') && (char < 'A' || char > 'F') {
			return false
		}
	}

	return true
}
