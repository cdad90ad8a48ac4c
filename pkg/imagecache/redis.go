package imagecache

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-redis/redis/v7"
	"github.com/pkg/errors"
)

type RedisClient struct {
	logger log.Logger
	prefix string
	client *redis.Client
}

func (r *RedisClient) GetKey(k Keyer) ([]byte, error) {
	v := r.client.Get(r.prefix + k.Key())
	ci, err := v.Bytes()
	if err == redis.Nil {
		// cache miss, no need of logging
		return nil, ErrNotCached
	} else if err != nil {
		_ = r.logger.Log("err", errors.Wrap(err, "fetching image from redis"))
		return nil, err
	}
	return ci, nil
}

// SetKey stores the value with no expiry; cached images are kept
// until redis itself evicts them.
func (r *RedisClient) SetKey(k Keyer, v []byte) error {
	if _, err := r.client.Set(r.prefix+k.Key(), v, 0).Result(); err != nil {
		_ = r.logger.Log("err", errors.Wrap(err, "storing in redis"))
		return err
	}
	return nil
}

// Stop closes the connection pool.
func (r *RedisClient) Stop() {
	r.client.Close()
}

type RedisConfig struct {
	Host     string
	Port     int
	Prefix   string
	Timeout  time.Duration
	MaxConns int
	Logger   log.Logger
}

func NewRedisClient(config RedisConfig) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     "", // no password set
		DB:           0,  // use default DB
		DialTimeout:  config.Timeout,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
		PoolSize:     config.MaxConns,
	})

	return &RedisClient{
		logger: config.Logger,
		prefix: config.Prefix,
		client: client,
	}
}
