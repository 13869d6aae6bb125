package synclist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Permanently/sessionbook/internal/domain"
	redisstore "github.com/Permanently/sessionbook/internal/store/redis"
)

// Subscriber is the pub/sub half the feed listens on. *redisstore.PubSub
// satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Publisher is the pub/sub half the broadcaster pushes on.
// *redisstore.PubSub satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// GatewayFeed produces summary snapshots for a scope: the current list from
// the persistence gateway first, then every snapshot broadcast on the
// scope's channel.
type GatewayFeed struct {
	gateway domain.SessionGateway
	sub     Subscriber
	limit   int
}

// NewGatewayFeed creates a feed. limit is how many summaries each snapshot
// carries; one more than the page size lets consumers derive HasMore.
func NewGatewayFeed(gateway domain.SessionGateway, sub Subscriber, limit int) *GatewayFeed {
	if limit <= 0 {
		limit = DefaultPageSize + 1
	}
	return &GatewayFeed{gateway: gateway, sub: sub, limit: limit}
}

// Snapshots implements Feed.
func (f *GatewayFeed) Snapshots(ctx context.Context, owner domain.OwnerScope) (<-chan []domain.SessionSummary, func(), error) {
	initial, err := f.gateway.ListSummaries(ctx, owner, f.limit)
	if err != nil {
		return nil, nil, fmt.Errorf("synclist.GatewayFeed.Snapshots: initial list: %w", err)
	}

	channel := redisstore.SummaryChannel(owner.OwnerID())
	msgs, cancel, err := f.sub.Subscribe(ctx, channel)
	if err != nil {
		return nil, nil, fmt.Errorf("synclist.GatewayFeed.Snapshots: subscribe: %w", err)
	}

	out := make(chan []domain.SessionSummary, 8)

	go func() {
		defer close(out)

		out <- initial

		for msg := range msgs {
			var snap []domain.SessionSummary
			if err := json.Unmarshal(msg, &snap); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("dropping undecodable summary snapshot")
				continue
			}
			out <- snap
		}
	}()

	return out, cancel, nil
}

// Broadcaster publishes a fresh full snapshot for a scope whenever its
// sessions change. Save and delete paths call SessionsChanged after the
// gateway write lands.
type Broadcaster struct {
	gateway domain.SessionGateway
	pub     Publisher
	limit   int
}

// NewBroadcaster creates a broadcaster with the same snapshot bound as the
// feed it pairs with.
func NewBroadcaster(gateway domain.SessionGateway, pub Publisher, limit int) *Broadcaster {
	if limit <= 0 {
		limit = DefaultPageSize + 1
	}
	return &Broadcaster{gateway: gateway, pub: pub, limit: limit}
}

// SessionsChanged recomputes the scope's snapshot and broadcasts it.
func (b *Broadcaster) SessionsChanged(ctx context.Context, owner domain.OwnerScope) error {
	snap, err := b.gateway.ListSummaries(ctx, owner, b.limit)
	if err != nil {
		return fmt.Errorf("synclist.Broadcaster.SessionsChanged: list: %w", err)
	}
	if snap == nil {
		snap = []domain.SessionSummary{}
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("synclist.Broadcaster.SessionsChanged: marshal: %w", err)
	}

	if err := b.pub.Publish(ctx, redisstore.SummaryChannel(owner.OwnerID()), payload); err != nil {
		return fmt.Errorf("synclist.Broadcaster.SessionsChanged: %w", err)
	}

	return nil
}
