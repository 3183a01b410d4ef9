package kafka

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/joshcrispo/dissonant-pulse/config"
	"github.com/joshcrispo/dissonant-pulse/pkg/applogger"
)

// NewProducer builds a confluent kafka producer from the application config.
func NewProducer() *kafka.Producer {
	c := config.Get()
	logger := applogger.GetLogrus()

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": c.Kafka.BootstrapServers,
		"acks":              "all",
	})
	if err != nil {
		logger.WithError(err).Fatal("an error occurred while creating kafka producer")
	}

	return producer
}
