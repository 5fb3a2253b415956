package storage

import (
	"context"
	"log"
	"os"
)

// Open returns an S3Store when MINIO_ENDPOINT is set and a LocalStore rooted
// at dir otherwise.
func Open(ctx context.Context, dir string) (Store, error) {
	if os.Getenv("MINIO_ENDPOINT") == "" {
		s, err := NewLocalStore(dir)
		if err != nil {
			return nil, err
		}
		log.Printf("Storing checkpoints under %s", dir)
		return s, nil
	}
	cfg, err := S3ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	s, err := NewS3Store(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("Storing checkpoints in bucket %s", cfg.Bucket)
	return s, nil
}
