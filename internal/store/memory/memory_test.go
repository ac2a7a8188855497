package memory

import (
	"testing"

	"bucketq/internal/store"
	"bucketq/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ObjectStore {
		return New()
	})
}
