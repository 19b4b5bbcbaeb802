package column

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leengari/statusd/internal/aggregation"
	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
	domainerrors "github.com/leengari/statusd/internal/domain/errors"
	"github.com/leengari/statusd/internal/filter"
	"github.com/leengari/statusd/internal/logging"
	"github.com/leengari/statusd/internal/render"
)

// BlobFunc extracts the bytes of a blob from a record.
// A returned error is a hard failure that ends the query.
type BlobFunc[T any] func(rec *T) ([]byte, error)

// Blob is a read-only binary column. Where the bytes come from is up to f.
type Blob[T any] struct {
	base
	f BlobFunc[T]
}

// NewBlob creates a blob column reading records of type T through offsets
func NewBlob[T any](name, description string, offsets Offsets, f BlobFunc[T]) *Blob[T] {
	return &Blob[T]{
		base: base{name: name, description: description, offsets: offsets},
		f:    f,
	}
}

func (c *Blob[T]) Type() Type { return TypeBlob }

func (c *Blob[T]) Output(row data.Row, r render.RowRenderer, _ auth.User, _ time.Duration) error {
	if Resolve[T](row, c.offsets) == nil {
		r.OutputNull()
		return nil
	}
	blob, err := c.GetValue(row)
	if err != nil {
		return err
	}
	r.OutputBlob(blob)
	return nil
}

func (c *Blob[T]) CreateFilter(filter.Kind, filter.RelationalOperator, string) (filter.Filter, error) {
	return nil, domainerrors.NewUnsupportedFilter("blob", c.Name())
}

func (c *Blob[T]) CreateAggregator(aggregation.Factory) (aggregation.Aggregator, error) {
	return nil, domainerrors.NewUnsupportedAggregation("blob", c.Name())
}

// GetValue returns the blob for row, an empty slice if there is no record
func (c *Blob[T]) GetValue(row data.Row) ([]byte, error) {
	rec := Resolve[T](row, c.offsets)
	if rec == nil {
		return []byte{}, nil
	}
	return c.f(rec)
}

// BasePathItself as a relative path makes a BlobFileReader read the base path
// itself, for blobs whose configured path already names the file.
const BasePathItself = ""

// BlobFileReader reads blobs from files below a configured base directory.
// Paths resolving outside of the base directory are refused.
type BlobFileReader[T any] struct {
	basePath func() string
	filePath func(*T) string
	log      *slog.Logger
	stat     func(string) (fs.FileInfo, error)
}

// NewBlobFileReader creates a reader. basePath is evaluated on every read so
// configuration reloads take effect; filePath maps a record to a path
// relative to it.
func NewBlobFileReader[T any](basePath func() string, filePath func(*T) string) *BlobFileReader[T] {
	return &BlobFileReader[T]{
		basePath: basePath,
		filePath: filePath,
		stat:     os.Stat,
	}
}

// WithLogger returns a copy of the reader logging to l
func (r *BlobFileReader[T]) WithLogger(l *slog.Logger) *BlobFileReader[T] {
	c := *r
	c.log = l
	return &c
}

func (r *BlobFileReader[T]) logger() *slog.Logger {
	if r.log != nil {
		return r.log
	}
	return logging.For("statusd.blob")
}

// Read returns the contents of the file belonging to rec. Missing or
// unreadable files give an empty blob; only a path escaping the base
// directory is an error.
func (r *BlobFileReader[T]) Read(rec *T) ([]byte, error) {
	basePath := r.basePath()
	if _, err := os.Stat(basePath); err != nil {
		// The base path is not configured.
		return []byte{}, nil
	}

	path := joinPath(basePath, r.filePath(rec))
	if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
		r.logger().Debug("not a regular file", slog.String("path", path))
		return []byte{}, nil
	}

	// Catches "../../etc/shadow", absolute paths and symlinks leading out.
	// From here on only the resolved path that passed the check is used.
	resolved, ok := resolveWithin(basePath, path)
	if !ok {
		return nil, &domainerrors.PathEscapeError{Path: path, Base: basePath}
	}

	fi, err := r.stat(resolved)
	if err != nil {
		r.logger().Warn("cannot stat blob file", slog.String("path", path), slog.Any("error", err))
		return []byte{}, nil
	}
	size := fi.Size()

	f, err := os.Open(resolved)
	if err != nil {
		r.logger().Warn("cannot open blob file", slog.String("path", path), slog.Any("error", err))
		return []byte{}, nil
	}
	defer f.Close()

	buf, err := readExactly(f, size)
	if err != nil {
		r.logger().Warn("premature EOF reading blob file",
			slog.String("path", path),
			slog.Int64("expected_size", size),
			slog.Any("error", err),
		)
		return []byte{}, nil
	}
	return buf, nil
}

var errSizeChanged = errors.New("file size changed while reading")

// readExactly reads size bytes and fails if the file holds fewer or more
func readExactly(f io.Reader, size int64) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", errSizeChanged, err)
	}
	var extra [1]byte
	if n, _ := f.Read(extra[:]); n != 0 {
		return nil, errSizeChanged
	}
	return buf, nil
}

// joinPath stacks rel onto base with native semantics: an absolute rel
// replaces base, BasePathItself keeps it.
func joinPath(base, rel string) string {
	switch {
	case rel == BasePathItself:
		return base
	case filepath.IsAbs(rel):
		return filepath.Clean(rel)
	default:
		return filepath.Join(base, rel)
	}
}

// resolveWithin makes dir and path absolute and resolves their symlinks. It
// returns the resolved path and whether it lies within dir.
func resolveWithin(dir, path string) (string, bool) {
	canonicalDir, err := canonical(dir)
	if err != nil {
		return "", false
	}
	canonicalPath, err := canonical(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return canonicalPath, true
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
