// Package assets provides access to embedded static files: SQL migrations
// and the fallback banner images served when a live favicon is unavailable.
package assets

import (
	"embed"
	"encoding/base64"
	"io/fs"

	"github.com/cubemon/cubemon/internal/models"
)

//go:embed migrations/*.sql img/*.png
var embedFS embed.FS

// ReadFile returns the content of a specific embedded file by its name.
func ReadFile(name string) ([]byte, error) {
	return embedFS.ReadFile(name)
}

// ReadDir returns the directory entries for a specific embedded path.
func ReadDir(name string) ([]fs.DirEntry, error) {
	return embedFS.ReadDir(name)
}

// FallbackBanner returns the embedded fallback banner for a platform as a
// data URI, the same encoding the dashboard receives for live favicons.
func FallbackBanner(platform models.Platform) string {
	name := "img/unknown_java.png"
	if platform == models.PlatformBedrock {
		name = "img/unknown_bedrock.png"
	}

	raw, err := embedFS.ReadFile(name)
	if err != nil {
		return ""
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
}
