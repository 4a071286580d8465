package kvstore

import (
	"context"

	"github.com/your-org/meetingcal/pkg/storage/objectstore"
)

// ObjectTier persists entries as objects in an S3-compatible bucket.
type ObjectTier struct {
	client objectstore.Client
}

func NewObjectTier(client objectstore.Client) *ObjectTier {
	return &ObjectTier{client: client}
}

func (o *ObjectTier) Name() string { return "objectstore" }

func (o *ObjectTier) Available(ctx context.Context) bool {
	if o == nil || o.client == nil {
		return false
	}
	return o.client.Ping(ctx) == nil
}

func (o *ObjectTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return o.client.Get(ctx, key)
}

func (o *ObjectTier) Set(ctx context.Context, key string, value []byte) error {
	return o.client.Put(ctx, key, value, "application/json")
}
