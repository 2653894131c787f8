package event

import (
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Publisher sends an encoded change to a topic.
type Publisher interface {
	Publish(topic, key string, payload []byte) error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
}

// NewKafkaProducer connects to brokers, retrying while the cluster comes up.
func NewKafkaProducer(brokers []string, attempts int) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		var producer sarama.SyncProducer
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			log.Printf("Kafka producer connected to %v", brokers)
			return &KafkaProducer{producer: producer}, nil
		}

		log.Printf("Waiting for Kafka... (%d/%d) Error: %v", i, attempts, err)
		if i < attempts {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("kafka producer: %w", err)
}

// NewKafkaProducerWith wraps an existing producer.
func NewKafkaProducerWith(producer sarama.SyncProducer) *KafkaProducer {
	return &KafkaProducer{producer: producer}
}

func (p *KafkaProducer) Publish(topic, key string, payload []byte) error {
	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: time.Now(),
	}

	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
