package deps

import (
	"time"

	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/registry"
	redisstore "github.com/MrSnakeDoc/warden/internal/store/redis"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Logger      logger.Logger
	StartTime   time.Time
	Version     string
	Commit      string
	BuildDate   string
	GoVersion   string
	TimeNow     func() time.Time   // for testing, defaults to time.Now
	RedisClient *redis.Client      // Redis client connection
	Registry    *registry.Registry // registered service policies
	Records     *redisstore.Store  // persisted service records
}
