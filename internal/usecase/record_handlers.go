package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EpiCast/internal/domain/models"
	domrepo "EpiCast/internal/domain/repository"
	pkgkafka "EpiCast/pkg/kafka"
	"EpiCast/pkg/util"
)

// LabRecordHandler consumes lab test messages and writes them to storage.
type LabRecordHandler struct {
	topic   string
	storage domrepo.SeriesStore
	metrics domrepo.Metrics
}

func NewLabRecordHandler(topic string, storage domrepo.SeriesStore, metrics domrepo.Metrics) *LabRecordHandler {
	return &LabRecordHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *LabRecordHandler) Topic() string { return h.topic }

// incoming message schema: {date, disease, total_tests, positive_tests}
func (h *LabRecordHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Date          string `json:"date"`
		Disease       string `json:"disease"`
		TotalTests    int    `json:"total_tests"`
		PositiveTests int    `json:"positive_tests"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	date, ok := util.ParseDate(m.Date)
	if !ok {
		h.metrics.RecordError("consumer_bad_date")
		return fmt.Errorf("lab record with unparseable date %q", m.Date)
	}
	disease, ok := models.ParseDisease(m.Disease)
	if !ok {
		h.metrics.RecordError("consumer_bad_disease")
		return fmt.Errorf("lab record for unknown disease %q", m.Disease)
	}

	start := time.Now()
	err := h.storage.StoreLabTests(ctx, []models.LabTest{{
		Date:          date,
		Disease:       disease,
		TotalTests:    m.TotalTests,
		PositiveTests: m.PositiveTests,
	}})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordRecordsStored("clickhouse", "lab", 1)
	return nil
}

var _ pkgkafka.MessageHandler = (*LabRecordHandler)(nil)

// SalesRecordHandler consumes medicine sales messages and writes them to
// storage.
type SalesRecordHandler struct {
	topic   string
	storage domrepo.SeriesStore
	metrics domrepo.Metrics
}

func NewSalesRecordHandler(topic string, storage domrepo.SeriesStore, metrics domrepo.Metrics) *SalesRecordHandler {
	return &SalesRecordHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *SalesRecordHandler) Topic() string { return h.topic }

// incoming message schema: {date, medicine, sale, disease_category}
func (h *SalesRecordHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Date            string  `json:"date"`
		Medicine        string  `json:"medicine"`
		Sale            float64 `json:"sale"`
		DiseaseCategory string  `json:"disease_category"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	date, ok := util.ParseDate(m.Date)
	if !ok {
		h.metrics.RecordError("consumer_bad_date")
		return fmt.Errorf("sales record with unparseable date %q", m.Date)
	}
	if m.Medicine == "" {
		h.metrics.RecordError("consumer_bad_medicine")
		return fmt.Errorf("sales record without medicine name")
	}

	category, _ := models.ParseDisease(m.DiseaseCategory)

	start := time.Now()
	err := h.storage.StoreSales(ctx, []models.MedicineSale{{
		Date:            date,
		Medicine:        m.Medicine,
		Sale:            m.Sale,
		DiseaseCategory: category,
	}})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordRecordsStored("clickhouse", "sales", 1)
	return nil
}

var _ pkgkafka.MessageHandler = (*SalesRecordHandler)(nil)
