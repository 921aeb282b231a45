package kafka

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"
)

// Sink routes Publish calls to one Producer per topic. It satisfies the
// checkout engine's publisher contract without leaking Kafka types into it.
type Sink struct {
	producers map[string]*Producer
}

func NewSink(brokers []string, buf int, topics ...string) *Sink {
	s := &Sink{producers: make(map[string]*Producer, len(topics))}
	for _, t := range topics {
		s.producers[t] = NewProducer(brokers, t, buf)
	}
	return s
}

func (s *Sink) Start(ctx context.Context) {
	for _, p := range s.producers {
		p.Start(ctx)
	}
}

func (s *Sink) Publish(topic string, key, value []byte) {
	p, ok := s.producers[topic]
	if !ok {
		log.Printf("kafka sink: no producer for topic %s, dropping", topic)
		return
	}
	p.Publish(key, value, kafka.Header{Key: "x-event-version", Value: []byte("1")})
}

func (s *Sink) Close() {
	for _, p := range s.producers {
		p.Close()
	}
}

func (s *Sink) WaitClosed() {
	for _, p := range s.producers {
		p.WaitClosed()
	}
}
