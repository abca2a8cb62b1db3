package media

import (
	"context"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
	TTL       time.Duration
}

// S3Resolver presigns GET URLs for references that are object keys in a bucket.
type S3Resolver struct {
	cfg    S3Config
	client *minio.Client
}

func NewS3Resolver(cfg S3Config) (*S3Resolver, error) {
	if cfg.Region == "" {
		// a fixed region keeps presigning offline; minio otherwise asks the bucket
		cfg.Region = "us-east-1"
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	return &S3Resolver{cfg: cfg, client: cl}, nil
}

func (s *S3Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" || IsAbsolute(ref) {
		return ref, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, strings.TrimLeft(ref, "/"), s.cfg.TTL, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
