package progress

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisBroker рассылает события через Redis Pub/Sub, так что за прогоном
// можно следить из другого процесса.
type RedisBroker struct {
	rdb *redis.Client
	log *slog.Logger

	mu   sync.Mutex
	subs map[chan Event]*redis.PubSub
}

var _ Broker = (*RedisBroker)(nil)

// NewRedisBroker подключается по url; пустой url берётся из REDIS_URL.
func NewRedisBroker(url string) (*RedisBroker, error) {
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}
	if url == "" {
		return nil, errors.New("progress: не задан адрес Redis (REDIS_URL)")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisBrokerClient(redis.NewClient(opt)), nil
}

// NewRedisBrokerClient использует готовый клиент.
func NewRedisBrokerClient(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{
		rdb:  rdb,
		log:  slog.Default().With(slog.String("component", "progress")),
		subs: map[chan Event]*redis.PubSub{},
	}
}

func (b *RedisBroker) Subscribe(runID string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, chanName(runID))
	// первое сообщение подтверждает подписку
	if _, err := ps.Receive(ctx); err != nil {
		b.log.Warn("подписка не подтверждена", slog.String("run_id", runID), slog.Any("err", err))
	}

	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()

	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe закрывает подписку; канал закрывается горутиной чтения.
func (b *RedisBroker) Unsubscribe(_ string, ch chan Event) {
	b.mu.Lock()
	ps := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ps != nil {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(runID string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		b.log.Warn("событие не сериализуется", slog.String("type", evt.Type), slog.Any("err", err))
		return
	}
	if err := b.rdb.Publish(ctx, chanName(runID), data).Err(); err != nil {
		b.log.Debug("публикация не удалась", slog.String("run_id", runID), slog.Any("err", err))
	}
}

func (b *RedisBroker) Close() error { return b.rdb.Close() }

func chanName(runID string) string { return "osp-ls:run:" + runID }
