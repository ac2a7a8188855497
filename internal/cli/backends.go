package cli

// Each backend registers its URL schemes with package store.
import (
	_ "bucketq/internal/store/memory"
	_ "bucketq/internal/store/minio"
	_ "bucketq/internal/store/pebble"
	_ "bucketq/internal/store/redis"
	_ "bucketq/internal/store/s3"
	_ "bucketq/internal/store/sqlite"
)
