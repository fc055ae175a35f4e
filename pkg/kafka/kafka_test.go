package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
)

func TestProducerConfig(t *testing.T) {
	config := ProducerConfig(5, 500*time.Millisecond)

	assert.NoError(t, config.Validate())
	assert.True(t, config.Producer.Return.Successes, "required by SyncProducer")
	assert.Equal(t, 5, config.Producer.Retry.Max)
	assert.Equal(t, 500*time.Millisecond, config.Producer.Retry.Backoff)
	assert.Equal(t, sarama.WaitForAll, config.Producer.RequiredAcks)
}

func TestConsumerConfig(t *testing.T) {
	config := ConsumerConfig()

	assert.NoError(t, config.Validate())
	assert.Equal(t, sarama.OffsetOldest, config.Consumer.Offsets.Initial)
	assert.True(t, config.Consumer.Return.Errors)
}
