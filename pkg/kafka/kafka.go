package kafka

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

const (
	maxRetries = 10
	retryDelay = 3 * time.Second
)

func waitForKafka(brokers []string) error {
	for i := 0; i < maxRetries; i++ {
		config := sarama.NewConfig()
		config.Net.DialTimeout = 1 * time.Second
		client, err := sarama.NewClient(brokers, config)
		if err == nil {
			client.Close()
			return nil
		}
		slog.Info("Waiting for Kafka to be ready...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	return fmt.Errorf("kafka not available after %d attempts", maxRetries)
}

// ProducerConfig returns the sarama settings used for subscriber events.
// Messages are keyed by email, so the hash partitioner keeps one address
// on one partition.
func ProducerConfig(retryMax int, retryBackoff time.Duration) *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.Retry.Max = retryMax
	config.Producer.Retry.Backoff = retryBackoff
	return config
}

// ConsumerConfig returns the sarama settings used by the subscriber worker.
func ConsumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true
	return config
}

func NewProducer(broker string, retryMax int, retryBackoff time.Duration) (sarama.SyncProducer, error) {
	brokers := []string{broker}
	if err := waitForKafka(brokers); err != nil {
		return nil, err
	}
	return sarama.NewSyncProducer(brokers, ProducerConfig(retryMax, retryBackoff))
}

func NewConsumer(broker, group string) (sarama.ConsumerGroup, error) {
	brokers := []string{broker}
	if err := waitForKafka(brokers); err != nil {
		return nil, err
	}
	return sarama.NewConsumerGroup(brokers, group, ConsumerConfig())
}
