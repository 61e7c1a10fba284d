package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// StartMatchEventSubscriber relays match events published by other server
// instances to the sockets connected here.
func StartMatchEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; match event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, game.MatchEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started (instance %s)", game.MatchEventsChannel, game.InstanceID())
		for msg := range ch {
			var ev game.MatchEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}
			relayMatchEvent(MatchHub, ev)
		}
		log.Printf("[WS] %s subscriber stopped", game.MatchEventsChannel)
	}()
}

// relayMatchEvent forwards an event from another instance to the local room.
// It reports whether the event was forwarded.
func relayMatchEvent(h *Hub, ev game.MatchEvent) bool {
	if ev.Origin == game.InstanceID() {
		return false
	}
	if h.RoomSize(ev.MatchID) == 0 {
		return false
	}

	switch ev.Type {
	case "shot_result", "match_snapshot":
		log.Printf("[WS] relaying %s for match %s from %s", ev.Type, ev.MatchID, ev.Origin)
		h.BroadcastToMatch(ev.MatchID, map[string]interface{}{
			"type": ev.Type,
			"data": ev.Data,
		})
		return true
	default:
		log.Printf("[WS] ignoring event type %q for match %s", ev.Type, ev.MatchID)
		return false
	}
}
