// Package version compares release versions and looks up the latest published one.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/network"
	"github.com/cinegate/cinegate/util"
	"github.com/cinegate/cinegate/where"
	"github.com/metafates/gache"
)

// ReleasesURL answers with the latest release in the GitHub API format.
const ReleasesURL = "https://api.github.com/repos/cinegate/cinegate/releases/latest"

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the newest released version, cached for two days.
func Latest(ctx context.Context) (string, error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}
	if !expired && ver != "" {
		return ver, nil
	}

	ver, err = latest(ctx, network.NewClient(network.Options{Timeout: 5 * time.Second}), ReleasesURL)
	if err != nil {
		return "", err
	}
	_ = versionCacher.Set(ver)
	return ver, nil
}

func latest(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("releases: unexpected status %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}
	return strings.TrimPrefix(release.TagName, "v"), nil
}
