package events

import (
	"context"
	"encoding/json"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/Mojtabakargaran/identity-service/internal/observability/logger"
)

// RedisPublisher publica el sobre como JSON por pub/sub. Entrega at-most-once
// a los suscriptores conectados; suficiente para notificaciones best-effort.
type RedisPublisher struct {
	Client  *rdb.Client
	Timeout time.Duration
}

func NewRedisPublisher(client *rdb.Client) *RedisPublisher {
	return &RedisPublisher{Client: client, Timeout: 3 * time.Second}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	if err := p.Client.Publish(ctx, topic, b).Err(); err != nil {
		logger.L().Warn("event publish failed",
			logger.String("topic", topic),
			logger.Event(ev.EventType),
			logger.Err(err))
		return err
	}
	return nil
}

// Emit publica y traga el error: la firma para los flujos donde el evento
// jamás debe afectar la respuesta al cliente.
func Emit(ctx context.Context, p Publisher, topic string, ev Event) {
	if p == nil {
		return
	}
	_ = p.Publish(ctx, topic, ev)
}
