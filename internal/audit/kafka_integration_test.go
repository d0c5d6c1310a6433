//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"turia/internal/audit"
	"turia/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	brokers   []string
	publisher *audit.KafkaPublisher
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers

	p, err := audit.NewKafkaPublisher(s.brokers, "gstin.audit.test", nil)
	s.Require().NoError(err)
	s.publisher = p

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(s.publisher.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(s.publisher.EnsureTopic(ctx, 1, 1), "second ensure is a no-op")
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (s *KafkaPublisherSuite) TestEmitProducesKeyedJSON() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hash := audit.HashGSTIN("29AAICT1443M1ZX")
	err := s.publisher.Emit(ctx, audit.Event{
		Action:    audit.ActionGSTINVerified,
		GSTINHash: hash,
		StateCode: "29",
		Outcome:   "verified",
		Source:    "fallback",
		RequestID: "req-kafka-1",
	})
	s.Require().NoError(err)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics("gstin.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var got *kgo.Record
	for got == nil {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for audit record")
		fetches.EachRecord(func(r *kgo.Record) {
			if string(r.Key) == hash {
				got = r
			}
		})
	}

	var event audit.Event
	s.Require().NoError(json.Unmarshal(got.Value, &event))
	s.Equal(audit.ActionGSTINVerified, event.Action)
	s.Equal("req-kafka-1", event.RequestID)
	s.False(event.Timestamp.IsZero())
	s.NotContains(string(got.Value), "29AAICT1443M1ZX")
}

func (s *KafkaPublisherSuite) TestHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.NoError(s.publisher.Health(ctx))
}
