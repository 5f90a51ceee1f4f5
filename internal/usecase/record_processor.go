package usecase

import (
	"context"
	"fmt"
	"time"

	"EpiCast/internal/domain/models"
	drepo "EpiCast/internal/domain/repository"
)

// RecordProcessor routes imported series records to the configured backend:
// straight into ClickHouse, or through Kafka for the consumer to store.
type RecordProcessor struct {
	pub     drepo.RecordPublisher
	store   drepo.SeriesStore
	metrics drepo.Metrics
	backend string
}

// NewRecordProcessor creates a new RecordProcessor instance.
func NewRecordProcessor(
	pub drepo.RecordPublisher,
	store drepo.SeriesStore,
	metrics drepo.Metrics,
	backend string,
) *RecordProcessor {
	return &RecordProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// ProcessLabTests routes a batch of lab records to the configured backend.
func (p *RecordProcessor) ProcessLabTests(ctx context.Context, tests []models.LabTest) error {
	if len(tests) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishLabTests(ctx, tests)
	case "clickhouse":
		err = p.store.StoreLabTests(ctx, tests)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_lab")
		return fmt.Errorf("process lab tests: %w", err)
	}

	p.metrics.RecordRecordsStored(p.backend, "lab", len(tests))
	p.metrics.RecordLatency("process_lab", time.Since(start).Seconds())

	return nil
}

// ProcessSales routes a batch of sales records to the configured backend.
func (p *RecordProcessor) ProcessSales(ctx context.Context, sales []models.MedicineSale) error {
	if len(sales) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishSales(ctx, sales)
	case "clickhouse":
		err = p.store.StoreSales(ctx, sales)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_sales")
		return fmt.Errorf("process sales: %w", err)
	}

	p.metrics.RecordRecordsStored(p.backend, "sales", len(sales))
	p.metrics.RecordLatency("process_sales", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *RecordProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
