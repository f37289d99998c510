package pubsub

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error
	Close() error
}

type confluentKafkaPublisher struct {
	logger   *logrus.Logger
	producer *kafka.Producer
}

func PublisherFromConfluentKafkaProducer(logger *logrus.Logger, producer *kafka.Producer) Publisher {
	return &confluentKafkaPublisher{
		logger:   logger,
		producer: producer,
	}
}

// Publish implements Publisher. It waits for the delivery report.
func (p *confluentKafkaPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error {
	kh := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kh = append(kh, kafka.Header{Key: k, Value: []byte(v)})
	}

	delivery := make(chan kafka.Event, 1)
	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          message,
		Headers:        kh,
	}, delivery)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("topic", topic).Error()
		return err
	}

	select {
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if ok && m.TopicPartition.Error != nil {
			p.logger.WithContext(ctx).WithError(m.TopicPartition.Error).WithField("topic", topic).Error()
			return m.TopicPartition.Error
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// Close implements Publisher.
func (p *confluentKafkaPublisher) Close() error {
	p.producer.Flush(5000)
	p.producer.Close()

	return nil
}
