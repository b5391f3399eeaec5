package redis

import (
	"context"
	"errors"
	"fmt"
	"heimdall/internal/entity"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrStatusNotFound = errors.New("zone status not found")

const zoneStatusPrefix = "heimdall:zone-status:"

// IRedis caches the latest evaluation per zone.
type IRedis interface {
	GetZoneStatus(ctx context.Context, zoneID string) (entity.ZoneStatus, error)
	SetZoneStatus(ctx context.Context, status entity.ZoneStatus, expiration time.Duration) error
	Close() error
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(log *logrus.Logger) IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	log.Infof("Connecting to Redis at %s...", redisAddr)

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Errorf("Failed to connect to Redis: %v", err)
	} else {
		log.Info("Successfully connected to Redis")
	}

	return NewWithClient(client, log)
}

func NewWithClient(client *redis.Client, log *logrus.Logger) IRedis {
	return &redisClient{client: client, log: log}
}

func ZoneStatusKey(zoneID string) string {
	return zoneStatusPrefix + zoneID
}

func (r *redisClient) GetZoneStatus(ctx context.Context, zoneID string) (entity.ZoneStatus, error) {
	val, err := r.client.Get(ctx, ZoneStatusKey(zoneID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.ZoneStatus{}, ErrStatusNotFound
	} else if err != nil {
		r.log.Errorf("Error getting status for zone %s: %v", zoneID, err)
		return entity.ZoneStatus{}, err
	}

	var status entity.ZoneStatus
	if err := jsoniter.Unmarshal(val, &status); err != nil {
		return entity.ZoneStatus{}, fmt.Errorf("corrupt status for zone %s: %w", zoneID, err)
	}
	return status, nil
}

func (r *redisClient) SetZoneStatus(ctx context.Context, status entity.ZoneStatus, expiration time.Duration) error {
	val, err := jsoniter.Marshal(status)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, ZoneStatusKey(status.ZoneID), val, expiration).Err(); err != nil {
		r.log.Errorf("Error setting status for zone %s: %v", status.ZoneID, err)
		return err
	}

	r.log.Debugf("Stored status %s for zone %s", status.Status, status.ZoneID)
	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
