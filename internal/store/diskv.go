package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// Diskv is a Store that keeps one file per record. The segment of a key
// before its first '-' becomes a directory so `todos-2024-01-31` is written
// to `todos/2024-01-31`.
type Diskv struct {
	d        *diskv.Diskv
	basePath string
}

// NewDiskv creates a file-per-record store rooted at basePath.
func NewDiskv(basePath string) (*Diskv, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Diskv{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		basePath: basePath,
	}, nil
}

// Read returns the record stored at key.
func (p *Diskv) Read(_ context.Context, key string) ([]byte, bool, error) {
	if !p.d.Has(key) {
		return nil, false, nil
	}
	val, err := p.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Write replaces the record at key.
func (p *Diskv) Write(_ context.Context, key string, data []byte) error {
	return p.d.Write(key, data)
}

// Remove deletes the record at key.
func (p *Diskv) Remove(_ context.Context, key string) error {
	if !p.d.Has(key) {
		return nil
	}
	return p.d.Erase(key)
}

// Keys lists keys with the given prefix in lexical order.
func (p *Diskv) Keys(ctx context.Context, prefix string) ([]string, error) {
	// Walk everything: a prefix such as "goals-week-" does not map onto a
	// single directory under the key transform.
	var keys []string
	for key := range p.d.Keys(ctx.Done()) {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; diskv holds no open handles.
func (p *Diskv) Close() error {
	return nil
}

func keyToPathTransform(s string) *diskv.PathKey {
	head, tail, found := strings.Cut(s, "-")
	if !found || tail == "" {
		return &diskv.PathKey{Path: []string{}, FileName: s}
	}
	return &diskv.PathKey{
		Path:     []string{head},
		FileName: tail,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}
