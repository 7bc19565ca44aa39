package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-mirgen/internal/fetch"
	"github.com/goliatone/go-mirgen/pkg/mir"
)

// Loader implements mir.Loader by delegating to file, fs.FS or HTTP
// strategies. Construction helpers live in the top-level mirgen package.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

var _ mir.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options mir.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
	}
}

// Load fetches the raw payload behind src.
func (l *Loader) Load(ctx context.Context, src mir.Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("mir loader: source is nil")
	}

	switch src.Kind() {
	case mir.SourceKindFile:
		return loadFile(ctx, src.Location())
	case mir.SourceKindFS:
		return loadFromFS(ctx, l.fs, src.Location())
	case mir.SourceKindURL:
		if !l.allowHTTP {
			return nil, errors.New("mir loader: http support disabled")
		}
		return fetch.Get(ctx, l.http, src.Location(), l.timeout)
	default:
		return nil, errors.New("mir loader: unsupported source kind")
	}
}
