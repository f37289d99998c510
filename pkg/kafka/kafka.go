package kafka

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/tazkarti/tz-booking/config"
)

func NewProducer() *kafka.Producer {
	c := config.Get()

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": c.Kafka.BootstrapServers,
		"client.id":         c.Kafka.ClientID,
		"acks":              c.Kafka.Acks,
	})
	if err != nil {
		panic(err)
	}

	return p
}
