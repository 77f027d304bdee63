package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type redisNotificationRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNotificationRepository keeps notifications in Redis hashes indexed by
// a per-user sorted set.
func NewNotificationRepository(client *redis.Client, ttl time.Duration) NotificationRepository {
	return &redisNotificationRepository{client: client, ttl: ttl}
}

func notificationKey(id string) string { return "notification:" + id }
func userNotificationsKey(uid string) string { return "notifications:user:" + uid }

func (r *redisNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	fields := map[string]any{
		"id":         n.ID,
		"user_id":    n.UserID,
		"message":    n.Message,
		"read":       n.Read,
		"created_at": n.CreatedAt.UnixNano(),
	}
	if n.TicketID != nil {
		fields["ticket_id"] = *n.TicketID
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, notificationKey(n.ID), fields)
	pipe.ZAdd(ctx, userNotificationsKey(n.UserID), redis.Z{Score: float64(n.CreatedAt.UnixNano()), Member: n.ID})
	if r.ttl > 0 {
		pipe.Expire(ctx, notificationKey(n.ID), r.ttl)
		pipe.Expire(ctx, userNotificationsKey(n.UserID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

func (r *redisNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := r.client.ZRevRange(ctx, userNotificationsKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	result := make([]domain.Notification, 0, len(ids))
	for _, id := range ids {
		values, err := r.client.HGetAll(ctx, notificationKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("load notification %s: %w", id, err)
		}
		if len(values) == 0 {
			continue
		}
		result = append(result, decodeNotification(values))
	}
	return result, nil
}

func (r *redisNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	owner, err := r.client.HGet(ctx, notificationKey(id), "user_id").Result()
	if errors.Is(err, redis.Nil) || (err == nil && owner != userID) {
		return domain.NotFound("notification", id)
	}
	if err != nil {
		return fmt.Errorf("load notification %s: %w", id, err)
	}
	if err := r.client.HSet(ctx, notificationKey(id), "read", true).Err(); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

func decodeNotification(values map[string]string) domain.Notification {
	n := domain.Notification{
		ID:      values["id"],
		UserID:  values["user_id"],
		Message: values["message"],
	}
	n.Read, _ = strconv.ParseBool(values["read"])
	if raw, err := strconv.ParseInt(values["created_at"], 10, 64); err == nil {
		n.CreatedAt = time.Unix(0, raw).UTC()
	}
	if ticketID, ok := values["ticket_id"]; ok && ticketID != "" {
		n.TicketID = &ticketID
	}
	return n
}
