package redis

import (
	"context"
	"errors"
	"sort"
	"time"

	rd "github.com/go-redis/redis/v9"
	c "github.com/patrickmn/go-cache"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

const USER_KEY string = "USER"

var _ persistence.UserDao = new(redisUserDao)

type redisUserDao struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.User]
	roleCache      *c.Cache
}

func NewRedisUserDao(conf Config) *redisUserDao {
	return &redisUserDao{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.User](),
		roleCache:      c.New(30*time.Second, 5*time.Minute),
	}
}

func (ud *redisUserDao) Save(user model.User) error {
	key := ud.getNamespaceKey(USER_KEY)
	ctx := context.Background()
	data, err := ud.encoderDecoder.Encode(user)
	if err != nil {
		return err
	}
	if err := ud.redisClient.HSet(ctx, key, []string{user.Email, string(data)}).Err(); err != nil {
		logger.Error("error in saving user", zap.String("email", user.Email), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	ud.roleCache.Flush()
	return nil
}

func (ud *redisUserDao) GetByEmail(email string) (*model.User, error) {
	key := ud.getNamespaceKey(USER_KEY)
	ctx := context.Background()
	userStr, err := ud.redisClient.HGet(ctx, key, email).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		logger.Error("error in getting user", zap.String("email", email), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return ud.encoderDecoder.Decode([]byte(userStr))
}

func (ud *redisUserDao) ListByRole(role model.UserRole) ([]model.User, error) {
	if cached, found := ud.roleCache.Get(string(role)); found {
		return cached.([]model.User), nil
	}
	key := ud.getNamespaceKey(USER_KEY)
	ctx := context.Background()
	all, err := ud.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing users", zap.String("role", string(role)), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	emails := make([]string, 0, len(all))
	for email := range all {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	users := make([]model.User, 0)
	for _, email := range emails {
		user, err := ud.encoderDecoder.Decode([]byte(all[email]))
		if err != nil {
			continue
		}
		if user.Role == role {
			users = append(users, *user)
		}
	}
	ud.roleCache.Set(string(role), users, c.DefaultExpiration)
	return users, nil
}
