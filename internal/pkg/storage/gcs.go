package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client
	signer *gcsSigner
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// CredentialsFile and CredentialsJSON are service account keys; when both
	// are empty application default credentials are used.
	CredentialsFile string
	CredentialsJSON []byte
	Endpoint        string
	WithoutAuth     bool
	// GoogleAccessID and PrivateKey enable signed URLs.
	GoogleAccessID string
	PrivateKey     []byte
}

type gcsSigner struct {
	googleAccessID string
	privateKey     []byte
}

// NewGCS constructs a GCS adapter.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	clientOpts, err := gcsClientOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}

	var signer *gcsSigner
	if opts.GoogleAccessID != "" && len(opts.PrivateKey) > 0 {
		signer = &gcsSigner{googleAccessID: opts.GoogleAccessID, privateKey: opts.PrivateKey}
	}

	return &GCSAdapter{client: client, signer: signer}, nil
}

func gcsClientOptions(ctx context.Context, opts GCSOptions) ([]option.ClientOption, error) {
	var out []option.ClientOption
	if opts.WithoutAuth {
		out = append(out, option.WithoutAuthentication())
	}

	credsJSON := opts.CredentialsJSON
	if len(credsJSON) == 0 && opts.CredentialsFile != "" {
		// #nosec G304 -- path is from trusted config file.
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, err
		}
		credsJSON = b
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, credsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		out = append(out, option.WithCredentials(creds))
	}

	if opts.Endpoint != "" {
		out = append(out, option.WithEndpoint(opts.Endpoint))
	}

	return out, nil
}

func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if opts.ContentType != "" {
		w.ContentType = opts.ContentType
	}

	if _, err := io.Copy(w, r); err != nil {
		return ObjectInfo{}, errors.Join(err, w.Close())
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}

	return gcsAttrsToInfo(w.Attrs()), nil
}

func (g *GCSAdapter) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	it := g.client.Bucket(bucket).Objects(ctx, &gcs.Query{Prefix: prefix})

	objects := make([]ObjectInfo, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return objects, nil
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, gcsAttrsToInfo(attrs))
	}
}

func (g *GCSAdapter) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if g.signer == nil {
		return "", ErrMissingSigner
	}

	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		GoogleAccessID: g.signer.googleAccessID,
		PrivateKey:     g.signer.privateKey,
		Method:         "GET",
		Expires:        time.Now().Add(expiry),
		Scheme:         gcs.SigningSchemeV4,
	})
}

func (g *GCSAdapter) Close() error {
	return g.client.Close()
}

func gcsAttrsToInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	if attrs == nil {
		return ObjectInfo{}
	}

	return ObjectInfo{
		Bucket:    attrs.Bucket,
		Key:       attrs.Name,
		Size:      attrs.Size,
		UpdatedAt: attrs.Updated,
	}
}
