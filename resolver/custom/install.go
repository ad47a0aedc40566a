package custom

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"path/filepath"

	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/util"
	"github.com/yuin/gopher-lua/parse"
)

// maxScriptSize bounds a downloaded script.
const maxScriptSize = 1 << 20

// Install downloads the script at rawURL into dir. An identical local copy is
// left alone and reported unchanged. A script that does not load is never kept.
func Install(ctx context.Context, client *http.Client, rawURL, dir string) (target string, changed bool, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false, fmt.Errorf("install %s: not an http(s) URL", rawURL)
	}

	name := path.Base(u.Path)
	if path.Ext(name) != Extension || util.FileStem(name) == "" {
		return "", false, fmt.Errorf("install %s: not a %s file", rawURL, Extension)
	}
	target = filepath.Join(dir, name)

	body, err := download(ctx, client, rawURL)
	if err != nil {
		return "", false, fmt.Errorf("install %s: %w", rawURL, err)
	}

	if _, err := parse.Parse(bytes.NewReader(body), name); err != nil {
		return "", false, fmt.Errorf("install %s: %w", rawURL, err)
	}

	previous, err := filesystem.API().ReadFile(target)
	switch {
	case err == nil && sha256.Sum256(previous) == sha256.Sum256(body):
		return target, false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return "", false, err
	}

	if err := filesystem.WriteAtomic(target, body, 0o644); err != nil {
		return "", false, err
	}

	if _, loadErr := Load(target, client); loadErr != nil {
		if previous != nil {
			err = filesystem.WriteAtomic(target, previous, 0o644)
		} else {
			err = filesystem.API().Remove(target)
		}
		return "", false, errors.Join(fmt.Errorf("install %s: %w", rawURL, loadErr), err)
	}
	return target, true, nil
}

func download(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxScriptSize {
		return nil, fmt.Errorf("larger than %d bytes", maxScriptSize)
	}
	return body, nil
}
