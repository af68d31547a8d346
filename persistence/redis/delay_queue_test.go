package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDelayQueue(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, queue *redisDelayQueue,
	){
		"test due message pops":     testPushPop,
		"test delay holds message":  testPushPopDelay,
		"test pop removes messages": testPopDrains,
	} {
		t.Run(scenario, func(t *testing.T) {
			conf := Config{
				Addrs:     []string{"localhost:6379"},
				Namespace: "test",
			}
			queue := NewRedisDelayQueue(conf)
			if err := queue.redisClient.Ping(context.Background()).Err(); err != nil {
				t.Skip("redis not reachable:", err)
			}
			queue.redisClient.Del(context.Background(), queue.getNamespaceKey("test-delay"))

			fn(t, queue)
		})
	}
}

func testPushPop(t *testing.T, queue *redisDelayQueue) {
	err := queue.PushWithDelay("test-delay", 0, []byte("test_msg1"))
	require.NoError(t, err)

	res, err := queue.Pop("test-delay")
	require.NoError(t, err)
	require.Equal(t, []string{"test_msg1"}, res)
}

func testPushPopDelay(t *testing.T, queue *redisDelayQueue) {
	err := queue.PushWithDelay("test-delay", 2*time.Second, []byte("test_msg2"))
	require.NoError(t, err)

	res, err := queue.Pop("test-delay")
	require.NoError(t, err)
	require.Empty(t, res)

	time.Sleep(3 * time.Second)
	res, err = queue.Pop("test-delay")
	require.NoError(t, err)
	require.Equal(t, []string{"test_msg2"}, res)
}

func testPopDrains(t *testing.T, queue *redisDelayQueue) {
	err := queue.PushWithDelay("test-delay", 0, []byte("test_msg3"))
	require.NoError(t, err)

	res, err := queue.Pop("test-delay")
	require.NoError(t, err)
	require.Equal(t, []string{"test_msg3"}, res)

	res, err = queue.Pop("test-delay")
	require.NoError(t, err)
	require.Empty(t, res)
}
