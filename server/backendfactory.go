package server

import (
	"net"
	"strconv"

	"github.com/go-redis/redis/v7"
	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/backend"
	"github.com/peer-calls/mediatrack/server/logger"
	"github.com/peer-calls/mediatrack/server/multierr"
)

// redisBackend closes the redis clients together with the gateway.
type redisBackend struct {
	*backend.Redis
	pubClient *redis.Client
	subClient *redis.Client
}

func (r *redisBackend) Close() error {
	var errs multierr.MultiErr

	errs.Add(r.Redis.Close())
	errs.Add(r.pubClient.Close())
	errs.Add(r.subClient.Close())

	return errors.Trace(errs.Err())
}

// NewBackend creates the backend gateway selected by c.
func NewBackend(log logger.Logger, c BackendConfig) (Backend, error) {
	log = log.WithNamespaceAppended("backend_factory")

	switch c.Type {
	case BackendTypeRedis:
		addr := net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))

		log.Info("Using redis backend", logger.Ctx{
			"addr":   addr,
			"prefix": c.Redis.Prefix,
		})

		pubClient := redis.NewClient(&redis.Options{
			Addr: addr,
		})
		subClient := redis.NewClient(&redis.Options{
			Addr: addr,
		})

		gateway, err := backend.NewRedis(backend.RedisParams{
			Log:    log,
			Pub:    pubClient,
			Sub:    subClient,
			Prefix: c.Redis.Prefix,
		})
		if err != nil {
			_ = pubClient.Close()
			_ = subClient.Close()

			return nil, errors.Annotatef(err, "new redis backend: %s", addr)
		}

		return &redisBackend{
			Redis:     gateway,
			pubClient: pubClient,
			subClient: subClient,
		}, nil
	case BackendTypeLoopback, "":
		log.Info("Using loopback backend", logger.Ctx{
			"dir":      c.Loopback.Dir,
			"temp_dir": c.Loopback.TempDir,
		})

		return backend.NewLoopback(backend.LoopbackParams{
			Log:     log,
			Dir:     c.Loopback.Dir,
			TempDir: c.Loopback.TempDir,
		}), nil
	default:
		return nil, errors.NotValidf("backend type: %q", c.Type)
	}
}
