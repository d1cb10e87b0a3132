package availability

import (
	"context"
	"encoding/json"
	"time"

	"github.com/meinhoongagan/spa-booking/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const activeSchedulesKey = "availability:schedules:active"

// CachedStore keeps the active weekly templates in redis for a short TTL.
// Blocked dates and appointments always go to the inner store.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{Store: inner, client: client, ttl: ttl}
}

func (s *CachedStore) ActiveSchedules(ctx context.Context) ([]models.WeeklySchedule, error) {
	var cached []models.WeeklySchedule
	if s.read(ctx, &cached) {
		return cached, nil
	}

	schedules, err := s.Store.ActiveSchedules(ctx)
	if err != nil {
		return nil, err
	}
	s.write(ctx, schedules)
	return schedules, nil
}

// Invalidate drops the cached templates; call it after any template change.
func (s *CachedStore) Invalidate(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, activeSchedulesKey).Err()
}

func (s *CachedStore) read(ctx context.Context, out any) bool {
	if s.client == nil || s.ttl <= 0 {
		return false
	}
	val, err := s.client.Get(ctx, activeSchedulesKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("schedule cache read failed")
		}
		return false
	}
	return json.Unmarshal(val, out) == nil
}

func (s *CachedStore) write(ctx context.Context, val any) {
	if s.client == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, activeSchedulesKey, data, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("schedule cache write failed")
	}
}
