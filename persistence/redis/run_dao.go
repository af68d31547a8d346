package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

const RUN_KEY string = "RUN"

var _ persistence.RunDao = new(redisRunDao)

type redisRunDao struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.RunContext]
}

func NewRedisRunDao(conf Config) *redisRunDao {
	return &redisRunDao{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.RunContext](),
	}
}

func (rd *redisRunDao) SaveRunContext(workflow string, runCtx *model.RunContext) error {
	key := rd.getNamespaceKey(RUN_KEY, workflow)
	ctx := context.Background()
	data, err := rd.encoderDecoder.Encode(*runCtx)
	if err != nil {
		return err
	}
	if err := rd.redisClient.HSet(ctx, key, []string{runCtx.Id, string(data)}).Err(); err != nil {
		logger.Error("error in saving run context", zap.String("workflow", workflow), zap.String("runId", runCtx.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rdao *redisRunDao) GetRunContext(workflow string, runId string) (*model.RunContext, error) {
	key := rdao.getNamespaceKey(RUN_KEY, workflow)
	ctx := context.Background()
	runCtxStr, err := rdao.redisClient.HGet(ctx, key, runId).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		logger.Error("error in getting run context", zap.String("workflow", workflow), zap.String("runId", runId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rdao.encoderDecoder.Decode([]byte(runCtxStr))
}

func (rdao *redisRunDao) DeleteRunContext(workflow string, runId string) error {
	key := rdao.getNamespaceKey(RUN_KEY, workflow)
	ctx := context.Background()
	if err := rdao.redisClient.HDel(ctx, key, runId).Err(); err != nil {
		logger.Error("error in deleting run context", zap.String("workflow", workflow), zap.String("runId", runId), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
