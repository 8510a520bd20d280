// Package historian is a best-effort publisher of every committed veto
// action to a Redis list, for external archival/analytics. Publication
// never fails the controller call it logs — a nil client silently no-ops
// and a failed push to an unreachable Redis is only logged. Grounded on the teacher's
// internal/cache/redis.go (getEnv/getEnvInt, ConnectRedis,
// PublishGameAction's RPush-onto-a-named-queue shape), adapted from a
// Postgres-backed game-action record to a veto-ceremony action record
// and with the durable consumer side dropped (see DESIGN.md).
package historian

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list historian actions are pushed onto.
const DefaultQueueName = "veto_actions"

// ActionRecord is one committed controller mutation.
type ActionRecord struct {
	LobbyID    string                 `json:"lobbyId"`
	ConnID     string                 `json:"connId"`
	TeamName   string                 `json:"teamName,omitempty"`
	ActionType string                 `json:"actionType"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// Publisher pushes ActionRecords onto a Redis list. A nil *Publisher (or
// one whose client is nil) is safe to call Publish on — it returns without
// doing anything, matching "never required by the controller to succeed."
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// Connect initializes a Publisher from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - HISTORIAN_QUEUE_NAME (optional, default DefaultQueueName)
//
// On connection failure it returns a non-nil error but the caller may
// still choose to run with a nil Publisher — historian is optional.
func Connect() (*Publisher, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: dbIdx})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Publisher{
		rdb:       rdb,
		queueName: getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName),
	}, nil
}

// Publish serializes record and RPushes it onto the configured queue.
// Failures are logged, never returned — callers invoke this fire-and-forget
// after a lobby mutation commits.
func (p *Publisher) Publish(ctx context.Context, record ActionRecord) {
	if p == nil || p.rdb == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		logrus.WithError(err).Warn("historian: failed to marshal action record")
		return
	}
	if err := p.rdb.RPush(ctx, p.queueName, data).Err(); err != nil {
		logrus.WithError(err).Warn("historian: failed to rpush action record")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
