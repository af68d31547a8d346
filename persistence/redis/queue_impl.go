package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/persistence"
	"go.uber.org/zap"
)

type redisQueue struct {
	baseDao
}

var _ persistence.Queue = new(redisQueue)

func NewRedisQueue(conf Config) *redisQueue {
	return &redisQueue{
		baseDao: *newBaseDao(conf),
	}
}

func (rq *redisQueue) Push(queueName string, message []byte) error {
	queueName = rq.getNamespaceKey(queueName)
	ctx := context.Background()
	err := rq.redisClient.LPush(ctx, queueName, message).Err()
	if err != nil {
		logger.Error("error while push to redis list", zap.String("queue", queueName), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rq *redisQueue) Pop(queueName string, batchSize int) ([]string, error) {
	queueName = rq.getNamespaceKey(queueName)
	ctx := context.Background()
	res, err := rq.redisClient.RPopCount(ctx, queueName, batchSize).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return []string{}, nil
		}
		logger.Error("error while pop from redis list", zap.String("queue", queueName), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return res, nil
}
