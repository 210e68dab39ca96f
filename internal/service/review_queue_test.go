package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestReviewQueueEnqueueAndPending(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	queue := NewReviewQueue(client, zerolog.Nop())

	require.NoError(t, queue.Enqueue(context.Background(), 7))
	require.NoError(t, queue.Enqueue(context.Background(), 9))

	ids, err := queue.Pending(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, []uint{7, 9}, ids)
}

func TestReviewQueueNilClientIsNoop(t *testing.T) {
	queue := NewReviewQueue(nil, zerolog.Nop())

	require.NoError(t, queue.Enqueue(context.Background(), 3))

	ids, err := queue.Pending(context.Background(), 10)
	require.NoError(t, err)
	require.Nil(t, ids)
}
