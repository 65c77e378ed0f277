package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/habedi/rentdesk/pkg/hasher"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// DownloadResult describes a finished document download.
type DownloadResult struct {
	Path     string
	Size     int64
	Checksum string
	Algo     string
}

// DownloadOptions controls where and how a document is saved.
type DownloadOptions struct {
	Dir  string
	Name string // file name inside Dir; FileName(doc) when empty
	Algo string // checksum algorithm; hasher.DefaultAlgo when empty
	// Progress receives a progress bar when not nil.
	Progress io.Writer
}

// DownloadDocument saves the file of doc into opts.Dir. The file is written
// under a temporary name and only renamed into place once it is complete.
func (c *Client) DownloadDocument(ctx context.Context, doc *Document, opts DownloadOptions) (*DownloadResult, error) {
	if doc.File == "" {
		return nil, fmt.Errorf("document %d has no file", doc.ID)
	}
	algo := opts.Algo
	if algo == "" {
		algo = hasher.DefaultAlgo
	}
	name := opts.Name
	if name == "" {
		name = c.FileName(doc)
	}

	fileURL, err := c.fileURL(doc.File)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", opts.Dir, err)
	}
	target := filepath.Join(opts.Dir, name)
	file, err := os.CreateTemp(opts.Dir, "."+name+".*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create file for %s: %w", target, err)
	}
	partial := file.Name()
	defer func() {
		if partial != "" {
			_ = file.Close()
			_ = os.Remove(partial)
		}
	}()

	hw, err := hasher.NewWriter(file, algo)
	if err != nil {
		return nil, err
	}

	var src io.Reader = c.limiter.Wrap(ctx, resp.Body)
	if opts.Progress != nil {
		bar := progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", name)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSpinnerType(14),
		)
		src = io.TeeReader(src, bar)
		defer bar.Finish()
	}

	if _, err := io.Copy(hw, src); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", target, err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", target, err)
	}
	if err := os.Rename(partial, target); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", target, err)
	}
	partial = ""

	log.Debug().Str("path", target).Int64("bytes", hw.Written()).Msg("Document downloaded")
	return &DownloadResult{Path: target, Size: hw.Written(), Checksum: hw.Sum(), Algo: algo}, nil
}

// FileName is the name a document is saved under by default: the last
// element of its file URL, or document-<id> when the URL has none.
func (c *Client) FileName(doc *Document) string {
	if fileURL, err := c.fileURL(doc.File); err == nil {
		return fileNameFor(doc, fileURL)
	}
	return fmt.Sprintf("document-%d", doc.ID)
}

// fileURL resolves a document file reference. The backend usually returns an
// absolute URL, but relative media paths are resolved against the API host.
func (c *Client) fileURL(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid document file URL %q: %w", ref, err)
	}
	if u.IsAbs() {
		return ref, nil
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

func fileNameFor(doc *Document, fileURL string) string {
	if u, err := url.Parse(fileURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "/" && name != "." {
			return name
		}
	}
	return fmt.Sprintf("document-%d", doc.ID)
}
