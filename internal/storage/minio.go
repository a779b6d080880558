package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures a Minio store.
type MinioOptions struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PutTTL bounds upload URLs. GetTTL bounds download URLs.
	PutTTL time.Duration
	GetTTL time.Duration
	// HTTPClient performs the pre-signed transfers. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Minio is an S3-compatible Store.
type Minio struct {
	client *minio.Client
	http   *http.Client
	bucket string
	putTTL time.Duration
	getTTL time.Duration
}

// NewMinio builds a client without contacting the server. Missing settings
// are reported together as ErrMissingConfig.
func NewMinio(opts MinioOptions) (*Minio, error) {
	var missing []string
	if opts.Endpoint == "" {
		missing = append(missing, "storage.endpoint")
	}
	if opts.Bucket == "" {
		missing = append(missing, "storage.bucket")
	}
	if opts.AccessKey == "" {
		missing = append(missing, "KAHU_STORAGE_ACCESS_KEY")
	}
	if opts.SecretKey == "" {
		missing = append(missing, "KAHU_STORAGE_SECRET_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrMissingConfig, strings.Join(missing, ", "))
	}

	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	putTTL := opts.PutTTL
	if putTTL <= 0 {
		putTTL = 5 * time.Minute
	}
	getTTL := opts.GetTTL
	if getTTL <= 0 {
		getTTL = 24 * time.Hour
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// A fixed region keeps presigning offline.
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
	}

	return &Minio{
		client: client,
		http:   httpClient,
		bucket: opts.Bucket,
		putTTL: putTTL,
		getTTL: getTTL,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrStorage, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrStorage, err)
	}
	return nil
}

func (m *Minio) IssuePutURL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, m.putTTL)
	if err != nil {
		return "", fmt.Errorf("%w: presign put %s: %v", kerrors.ErrStorage, key, err)
	}
	return u.String(), nil
}

func (m *Minio) IssueGetURL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.getTTL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: presign get %s: %v", kerrors.ErrStorage, key, err)
	}
	return u.String(), nil
}

func (m *Minio) Put(ctx context.Context, key string, data []byte) error {
	u, err := m.IssuePutURL(ctx, key)
	if err != nil {
		return err
	}
	return putObject(ctx, m.http, u, data)
}

func (m *Minio) Get(ctx context.Context, key string) ([]byte, error) {
	u, err := m.IssueGetURL(ctx, key)
	if err != nil {
		return nil, err
	}
	return getObject(ctx, m.http, u)
}

func (m *Minio) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{GovernanceBypass: true})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", kerrors.ErrStorage, key, err)
	}
	return nil
}

// putObject uploads data to a pre-signed URL as an octet stream.
func putObject(ctx context.Context, client *http.Client, url string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrStorage, err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: upload: %v", kerrors.ErrStorage, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: upload returned %s", kerrors.ErrStorage, resp.Status)
	}
	return nil
}

// getObject downloads the body served at a pre-signed URL.
func getObject(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStorage, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download: %v", kerrors.ErrStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrStorage, ErrObjectNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: download returned %s", kerrors.ErrStorage, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", kerrors.ErrStorage, err)
	}
	return data, nil
}
