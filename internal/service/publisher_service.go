package service

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	// Publish routes payload to the shard owning key, so every message for
	// one key is handled by the same worker.
	Publish(ctx context.Context, key string, payload []byte) error
}

type publisherService struct {
	topicName string
	shards    int
	publisher message.Publisher
}

func NewPublisherService(topicName string, shards int, publisher message.Publisher) IPublisherService {
	if shards < 1 {
		shards = 1
	}
	return &publisherService{
		topicName: topicName,
		shards:    shards,
		publisher: publisher,
	}
}

func (p *publisherService) Publish(ctx context.Context, key string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("key", key)
	return p.publisher.Publish(ShardTopic(p.topicName, shardOf(key, p.shards)), msg)
}

func ShardTopic(topic string, shard int) string {
	return fmt.Sprintf("%s.%d", topic, shard)
}

func shardOf(key string, shards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(shards))
}
