// Package poster turns a poster reference into image bytes. A reference is a
// local image file, a media container with embedded artwork, or a remote URL
// that is downloaded once into the poster cache directory.
package poster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"marquee/internal/shared"
)

var ErrUnsupportedSource = errors.New("unsupported poster source")

var ErrOutsideRoots = errors.New("poster path is outside allowed directories")

const (
	KindFile     = "file"
	KindEmbedded = "embedded"
	KindRemote   = "remote"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultMaxBytes = 20 << 20
)

// Source is a resolved poster reference.
type Source struct {
	Kind        string
	Reference   string
	Path        string
	ModUnixNano int64
}

type Options struct {
	CacheDir    string
	LibraryDirs []string
	// AllowAnyPath lifts the directory guard for local paths; the CLI uses
	// it, the HTTP server does not.
	AllowAnyPath  bool
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
	MaxBytes      int64
	Client        *http.Client
	Logger        *log.Logger
}

type Resolver struct {
	cacheDir     string
	roots        []string
	allowAnyPath bool
	client       *http.Client
	limiter      *rate.Limiter
	maxBytes     int64
	logger       *log.Logger
}

func NewResolver(opts Options) *Resolver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	cacheDir := strings.TrimSpace(opts.CacheDir)
	roots := make([]string, 0, len(opts.LibraryDirs)+1)
	for _, dir := range append([]string{cacheDir}, opts.LibraryDirs...) {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if abs, err := filepath.Abs(filepath.Clean(dir)); err == nil {
			roots = append(roots, abs)
		}
	}

	return &Resolver{
		cacheDir:     cacheDir,
		roots:        roots,
		allowAnyPath: opts.AllowAnyPath,
		client:       client,
		limiter:      rate.NewLimiter(limit, burst),
		maxBytes:     maxBytes,
		logger:       logger,
	}
}

// Roots lists the directories local posters may come from.
func (r *Resolver) Roots() []string {
	roots := make([]string, len(r.roots))
	copy(roots, r.roots)
	return roots
}

func (r *Resolver) Resolve(ctx context.Context, reference string) (Source, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Source{}, fmt.Errorf("%w: poster reference", shared.ErrMissingArgument)
	}

	if parsed, err := url.Parse(reference); err == nil && parsed.Scheme != "" && len(parsed.Scheme) > 1 {
		switch strings.ToLower(parsed.Scheme) {
		case "http", "https":
			return r.resolveRemote(ctx, reference)
		case "file":
			reference = parsed.Path
		default:
			return Source{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, parsed.Scheme)
		}
	}

	resolvedPath, err := r.resolveLocalPath(reference)
	if err != nil {
		return Source{}, err
	}

	return statSource(reference, resolvedPath)
}

func (r *Resolver) resolveLocalPath(requestedPath string) (string, error) {
	base := ""
	if len(r.roots) > 0 {
		base = r.roots[0]
	}

	resolvedPath, err := absoluteUnder(base, requestedPath)
	if err != nil {
		return "", err
	}

	if !r.allowAnyPath {
		allowed := false
		for _, root := range r.roots {
			if within(root, resolvedPath) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", ErrOutsideRoots
		}
	}

	return requireFile(resolvedPath)
}

func absoluteUnder(base string, requestedPath string) (string, error) {
	cleanRequested := filepath.Clean(requestedPath)
	if !filepath.IsAbs(cleanRequested) && base != "" {
		cleanRequested = filepath.Join(base, cleanRequested)
	}

	return filepath.Abs(cleanRequested)
}

func within(root string, path string) bool {
	relative, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return relative != ".." && !strings.HasPrefix(relative, ".."+string(os.PathSeparator)) && !filepath.IsAbs(relative)
}

func requireFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: poster %s", shared.ErrNotFound, path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnsupportedSource, path)
	}
	return path, nil
}

func statSource(reference string, path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: poster %s", shared.ErrNotFound, path)
	}

	kind := KindFile
	if IsMediaContainer(path) {
		kind = KindEmbedded
	}

	return Source{
		Kind:        kind,
		Reference:   reference,
		Path:        path,
		ModUnixNano: info.ModTime().UnixNano(),
	}, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, rawURL string) (Source, error) {
	if strings.TrimSpace(r.cacheDir) == "" {
		return Source{}, fmt.Errorf("%w: remote posters need a cache dir", ErrUnsupportedSource)
	}

	hash := urlHash(rawURL)
	if cachedPath, ok := findCachedFile(r.cacheDir, hash); ok {
		source, err := statSource(rawURL, cachedPath)
		if err != nil {
			return Source{}, err
		}
		source.Kind = KindRemote
		return source, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return Source{}, fmt.Errorf("wait for fetch slot: %w", err)
	}

	payload, contentType, err := r.fetch(ctx, rawURL)
	if err != nil {
		return Source{}, err
	}

	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return Source{}, fmt.Errorf("create poster cache dir: %w", err)
	}

	targetPath := filepath.Join(r.cacheDir, CacheFilename(hash, extensionFor(contentType, payload)))
	if err := writeCacheFile(r.cacheDir, hash, targetPath, payload); err != nil {
		return Source{}, err
	}

	r.logger.Debug("cached remote poster", "url", rawURL, "path", targetPath, "bytes", len(payload))

	source, err := statSource(rawURL, targetPath)
	if err != nil {
		return Source{}, err
	}
	source.Kind = KindRemote
	return source, nil
}

// writeCacheFile commits payload to targetPath through a temp file unique to
// this call, so concurrent downloads of one URL never share a partial file.
func writeCacheFile(cacheDir string, hash string, targetPath string, payload []byte) error {
	part, err := os.CreateTemp(cacheDir, hash+"-*.part")
	if err != nil {
		return fmt.Errorf("create poster cache file: %w", err)
	}
	partPath := part.Name()

	if _, err := part.Write(payload); err != nil {
		part.Close()
		os.Remove(partPath)
		return fmt.Errorf("write poster cache file: %w", err)
	}
	if err := part.Close(); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("close poster cache file: %w", err)
	}
	if err := os.Chmod(partPath, 0o644); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("chmod poster cache file: %w", err)
	}

	if err := os.Rename(partPath, targetPath); err != nil {
		os.Remove(partPath)
		if info, statErr := os.Stat(targetPath); statErr == nil && !info.IsDir() {
			return nil
		}
		return fmt.Errorf("commit poster cache file: %w", err)
	}
	return nil
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build poster request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: %s returned %s", shared.ErrFetchFailed, rawURL, resp.Status)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read body: %v", shared.ErrFetchFailed, err)
	}
	if int64(len(payload)) > r.maxBytes {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", shared.ErrPayloadTooBig, rawURL, r.maxBytes)
	}
	if len(payload) == 0 {
		return nil, "", fmt.Errorf("%w: %s returned an empty body", shared.ErrFetchFailed, rawURL)
	}

	return payload, resp.Header.Get("Content-Type"), nil
}
