// Package source retrieves the raw rating tables from a static file store.
// A dataset is addressed by agency, country code and build tag; the store
// decides where that name lives (an HTTP base URL, a local directory or an
// S3-compatible bucket).
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seenimoa/sovwatch/pkg/models"
)

// StoreInfo describes a configured store.
type StoreInfo struct {
	Kind        string `json:"kind"`     // "http", "file", "s3"
	Location    string `json:"location"` // base URL, directory or s3://bucket/prefix
	Description string `json:"description"`
}

// Store is a read-only file store holding one table per dataset name.
type Store interface {
	// Info returns metadata about the store.
	Info() StoreInfo

	// Open returns the content of the named dataset. A dataset that does not
	// exist yields a *NotFoundError; any other error means the store could
	// not be reached or read.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// Options configures store construction.
type Options struct {
	BaseURL   string
	Dir       string
	Timeout   time.Duration
	RateLimit int // requests per second, 0 = unlimited
	S3        S3Options
}

// Address returns the dataset name for an (agency, country) pair:
// "{agency}{code}_{buildTag}.{ext}", e.g. "FitchCR_11042025.xlsx".
func Address(agency models.Agency, code, buildTag, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s%s_%s.%s", agency, strings.ToUpper(code), buildTag, ext)
}

// NotFoundError is returned when a dataset does not exist in the store.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset %q not found: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("dataset %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// IsNotFound reports whether err (or anything it wraps) is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ErrStoreNotFound is returned when a store kind is not registered.
type ErrStoreNotFound struct {
	Kind string
}

func (e *ErrStoreNotFound) Error() string {
	return fmt.Sprintf("store kind %q not registered", e.Kind)
}

// Locate joins a dataset name onto a store location, for logs and the series
// Source field.
func Locate(s Store, name string) string {
	loc := s.Info().Location
	if loc == "" {
		return name
	}
	return strings.TrimRight(loc, "/") + "/" + name
}
