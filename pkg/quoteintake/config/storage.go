package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tendant/quote-intake/pkg/quoteintake"
	fsstorage "github.com/tendant/quote-intake/pkg/quoteintake/storage/fs"
	gcsstorage "github.com/tendant/quote-intake/pkg/quoteintake/storage/gcs"
	memorystorage "github.com/tendant/quote-intake/pkg/quoteintake/storage/memory"
	miniostorage "github.com/tendant/quote-intake/pkg/quoteintake/storage/minio"
	s3storage "github.com/tendant/quote-intake/pkg/quoteintake/storage/s3"
)

// Storage backend types
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
	StorageMinio  = "minio"
	StorageGCS    = "gcs"
)

// StorageSpec is a parsed STORAGE_URL.
//
//	memory://
//	file:///var/data
//	s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true
//	minio://localhost:9000/bucket?secure=false
//	gs://bucket
type StorageSpec struct {
	Type         string
	Bucket       string
	Path         string
	Endpoint     string
	Region       string
	UsePathStyle bool
	Secure       bool
	CreateBucket bool
}

// Credentials for the network backends, taken from the environment
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	GCSFile         string
}

// ParseStorageURL parses a STORAGE_URL value
func ParseStorageURL(raw string) (StorageSpec, error) {
	if raw == "memory" {
		return StorageSpec{Type: StorageMemory}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return StorageSpec{}, fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	query := u.Query()

	createBucket, err := parseBoolParam(query, "create_bucket", false)
	if err != nil {
		return StorageSpec{}, err
	}

	switch u.Scheme {
	case "memory":
		return StorageSpec{Type: StorageMemory}, nil

	case "file":
		path := u.Host + u.Path
		if path == "" {
			return StorageSpec{}, errors.New("filesystem path cannot be empty in STORAGE_URL")
		}
		return StorageSpec{Type: StorageFS, Path: path}, nil

	case "s3":
		if u.Host == "" {
			return StorageSpec{}, errors.New("S3 bucket name cannot be empty in STORAGE_URL")
		}
		pathStyle, err := parseBoolParam(query, "path_style", false)
		if err != nil {
			return StorageSpec{}, err
		}
		return StorageSpec{
			Type:         StorageS3,
			Bucket:       u.Host,
			Region:       query.Get("region"),
			Endpoint:     query.Get("endpoint"),
			UsePathStyle: pathStyle,
			CreateBucket: createBucket,
		}, nil

	case "minio":
		bucket := strings.Trim(u.Path, "/")
		if u.Host == "" || bucket == "" {
			return StorageSpec{}, errors.New("minio STORAGE_URL needs host:port and bucket (minio://host:port/bucket)")
		}
		secure, err := parseBoolParam(query, "secure", true)
		if err != nil {
			return StorageSpec{}, err
		}
		return StorageSpec{
			Type:         StorageMinio,
			Bucket:       bucket,
			Endpoint:     u.Host,
			Region:       query.Get("region"),
			Secure:       secure,
			CreateBucket: createBucket,
		}, nil

	case "gs":
		if u.Host == "" {
			return StorageSpec{}, errors.New("GCS bucket name cannot be empty in STORAGE_URL")
		}
		return StorageSpec{
			Type:     StorageGCS,
			Bucket:   u.Host,
			Endpoint: query.Get("endpoint"),
		}, nil
	}

	return StorageSpec{}, fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', 's3://...', 'minio://...' or 'gs://...')", u.Redacted())
}

// Build constructs the backend s describes
func (s StorageSpec) Build(ctx context.Context, creds Credentials) (quoteintake.ObjectStore, error) {
	region := s.Region
	if region == "" {
		region = creds.Region
	}

	var (
		store quoteintake.ObjectStore
		err   error
	)
	switch s.Type {
	case StorageMemory:
		return memorystorage.New(), nil
	case StorageFS:
		store, err = asStore(fsstorage.New(fsstorage.Config{BaseDir: s.Path}))
	case StorageS3:
		store, err = asStore(s3storage.New(ctx, s3storage.Config{
			Region:                 region,
			Bucket:                 s.Bucket,
			AccessKeyID:            creds.AccessKeyID,
			SecretAccessKey:        creds.SecretAccessKey,
			Endpoint:               s.Endpoint,
			UsePathStyle:           s.UsePathStyle,
			CreateBucketIfNotExist: s.CreateBucket,
		}))
	case StorageMinio:
		store, err = asStore(miniostorage.New(ctx, miniostorage.Config{
			Endpoint:               s.Endpoint,
			Bucket:                 s.Bucket,
			AccessKeyID:            creds.AccessKeyID,
			SecretAccessKey:        creds.SecretAccessKey,
			Secure:                 s.Secure,
			Region:                 region,
			CreateBucketIfNotExist: s.CreateBucket,
		}))
	case StorageGCS:
		store, err = asStore(gcsstorage.New(ctx, gcsstorage.Config{
			Bucket:          s.Bucket,
			CredentialsFile: creds.GCSFile,
			Endpoint:        s.Endpoint,
		}))
	default:
		return nil, fmt.Errorf("unknown storage type %q", s.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", s.Type, err)
	}
	return store, nil
}

// asStore keeps a failed constructor's nil pointer out of the interface
func asStore[T quoteintake.ObjectStore](store T, err error) (quoteintake.ObjectStore, error) {
	if err != nil {
		return nil, err
	}
	return store, nil
}

func parseBoolParam(query url.Values, key string, fallback bool) (bool, error) {
	raw := query.Get(key)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for STORAGE_URL parameter %s: %w", key, err)
	}
	return parsed, nil
}
