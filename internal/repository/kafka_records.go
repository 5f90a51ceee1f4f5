package repository

import (
	"context"

	"EpiCast/internal/domain/models"
	"EpiCast/internal/domain/repository"
	pkgkafka "EpiCast/pkg/kafka"
	"EpiCast/pkg/util"
)

// KafkaRecordPublisher implements RecordPublisher for Kafka. Lab messages
// are keyed by disease and sales messages by medicine, so each series stays
// ordered within its partition.
type KafkaRecordPublisher struct {
	producer   *pkgkafka.Producer
	labTopic   string
	salesTopic string
}

// NewKafkaRecordPublisher creates a Kafka record publisher.
func NewKafkaRecordPublisher(producer *pkgkafka.Producer, labTopic, salesTopic string) repository.RecordPublisher {
	return &KafkaRecordPublisher{producer: producer, labTopic: labTopic, salesTopic: salesTopic}
}

func (p *KafkaRecordPublisher) PublishLabTests(ctx context.Context, tests []models.LabTest) error {
	if len(tests) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(tests))
	for i, t := range tests {
		msgs[i] = pkgkafka.Message{
			Key: []byte(t.Disease),
			Value: map[string]interface{}{
				"date":           util.FormatDate(t.Date),
				"disease":        string(t.Disease),
				"total_tests":    t.TotalTests,
				"positive_tests": t.PositiveTests,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.labTopic, msgs)
}

func (p *KafkaRecordPublisher) PublishSales(ctx context.Context, sales []models.MedicineSale) error {
	if len(sales) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(sales))
	for i, m := range sales {
		msgs[i] = pkgkafka.Message{
			Key: []byte(m.Medicine),
			Value: map[string]interface{}{
				"date":             util.FormatDate(m.Date),
				"medicine":         m.Medicine,
				"sale":             m.Sale,
				"disease_category": string(m.DiseaseCategory),
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.salesTopic, msgs)
}

func (p *KafkaRecordPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
