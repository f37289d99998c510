package redis

import (
	"github.com/redis/go-redis/v9"
	"github.com/tazkarti/tz-booking/config"
)

func GetClient() *redis.Client {
	c := config.Get()

	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}
