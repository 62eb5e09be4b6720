// Package artifact loads trained model bundles and metadata tables from disk.
//
// Loading is all-or-nothing: a returned artifact has every sub-object present
// and consistent, otherwise the error is a *domain.LoadError naming the file
// and the failed part.
package artifact

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/recserve/internal/domain"
)

// DefaultMaxBytes caps a single artifact file when Options.MaxBytes is zero.
const DefaultMaxBytes int64 = 1 << 30

// Options tunes loading.
type Options struct {
	// MaxBytes rejects files larger than this before reading them.
	MaxBytes int64
}

func (o Options) maxBytes() int64 {
	if o.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return o.MaxBytes
}

// readBounded reads path after checking its size against the ceiling.
func readBounded(path string, opts Options) ([]byte, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewLoadError(path, "file", err)
	}
	if st.IsDir() {
		return nil, domain.NewLoadError(path, "file", fmt.Errorf("is a directory"))
	}
	if limit := opts.maxBytes(); st.Size() > limit {
		return nil, domain.NewLoadError(path, "size",
			fmt.Errorf("%d bytes exceeds limit of %d", st.Size(), limit))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewLoadError(path, "file", err)
	}
	return data, nil
}

func decodeBundle(path string, opts Options, dst any) error {
	data, err := readBounded(path, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return domain.NewLoadError(path, "decode", err)
	}
	return nil
}
