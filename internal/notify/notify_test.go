package notify

import (
	"context"
	"testing"
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "notifications:siti@example.com", Channel("  Siti@Example.com "))
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	assert.NoError(t, p.Publish(context.Background(), models.Notification{}))
}

func TestRedisPublisherUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	err := NewRedisPublisher(rdb).Publish(context.Background(), models.Notification{ID: 7, UserEmail: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish notification 7")

	_, err = Subscribe(context.Background(), rdb, "a@example.com")
	assert.Error(t, err)
}
