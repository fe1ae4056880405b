package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/segmentio/kafka-go"
)

// KafkaBus broadcasts changes across processes. Messages are keyed by
// scope so one scope's changes land on one partition and arrive in order.
type KafkaBus struct {
	writer *kafka.Writer
	reader *kafka.Reader

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Change)
}

func NewKafkaBus(topic, group string, brokers ...string) *KafkaBus {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaBus{writer: w, reader: r, subs: make(map[int]func(Change))}
}

func (b *KafkaBus) Publish(ctx context.Context, change Change) error {
	value, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change failed: %w", err)
	}
	err = b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(change.Scope),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish change failed: %w", err)
	}
	return nil
}

func (b *KafkaBus) Subscribe(fn func(Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Run consumes the topic until ctx is cancelled, dispatching each change
// to current subscribers in delivery order.
func (b *KafkaBus) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		b.readAndDispatch(ctx)
	}
}

func (b *KafkaBus) Close() {
	if err := b.reader.Close(); err != nil {
		log.Printf("error closing reader: %v", err)
	}
	if err := b.writer.Close(); err != nil {
		log.Printf("error closing writer: %v", err)
	}
}

func (b *KafkaBus) readAndDispatch(ctx context.Context) {
	m, err := b.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("error reading change message: %v", err)
		}
		return
	}

	var change Change
	if err := json.Unmarshal(m.Value, &change); err != nil {
		log.Printf("error parsing change message: %v", err)
		return
	}
	if change.Scope == "" {
		log.Printf("change message missing scope, skipping")
		return
	}

	b.mu.Lock()
	fns := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
