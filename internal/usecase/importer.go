package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"EpiCast/internal/domain/models"
	"EpiCast/pkg/logger"
	"EpiCast/pkg/util"
)

// Column aliases accepted by the pharmacy importer. Lab files use fixed
// column names; pharmacy exports come from several POS systems with their
// own headers.
var (
	pharmacyDateColumns     = []string{"date", "day", "tanggal"}
	pharmacyMedicineColumns = []string{"brand_name", "brand / product name", "medicine", "product", "drug", "obat", "brand/name"}
	pharmacySalesColumns    = []string{"total_sales", "sales", "sale", "amount", "quantity", "jumlah"}
)

// classifyThreshold is the minimum number of catalog matches before a
// pharmacy file is assigned a disease.
const classifyThreshold = 2

// ImportSummary reports one file import. Row-level failures are collected
// in RowErrors and do not abort the import; backend failures do.
type ImportSummary struct {
	Kind      string
	Disease   models.Disease // lab: as requested; pharmacy: classified, "" when unknown
	Rows      int
	Imported  int
	RowErrors []string
}

// Importer parses uploaded CSV files into series records and hands them to
// the backend router.
type Importer struct {
	processor *RecordProcessor
	logger    *logger.Logger
}

func NewImporter(processor *RecordProcessor, log *logger.Logger) *Importer {
	return &Importer{processor: processor, logger: log}
}

// ImportLab reads a lab test CSV for one disease. Required columns are
// date, total_tests and positive_tests (or cases), matched case-insensitively.
func (im *Importer) ImportLab(ctx context.Context, r io.Reader, disease models.Disease) (*ImportSummary, error) {
	if _, ok := models.SpecFor(disease); !ok {
		return nil, fmt.Errorf("importer: unknown disease %q", disease)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("importer: file is empty")
		}
		return nil, fmt.Errorf("importer: reading header: %w", err)
	}

	dateIdx := findColumn(header, "date")
	totalIdx := findColumn(header, "total_tests")
	posIdx := findColumn(header, "positive_tests")
	if posIdx < 0 {
		posIdx = findColumn(header, "cases")
	}

	var missing []string
	if dateIdx < 0 {
		missing = append(missing, "date")
	}
	if totalIdx < 0 {
		missing = append(missing, "total_tests")
	}
	if posIdx < 0 {
		missing = append(missing, "positive_tests or cases")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("importer: missing required columns: %s (found: %s)",
			strings.Join(missing, ", "), strings.Join(header, ", "))
	}

	summary := &ImportSummary{Kind: "lab", Disease: disease}
	var tests []models.LabTest
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: reading row %d: %w", summary.Rows+2, err)
		}
		summary.Rows++

		if max(dateIdx, totalIdx, posIdx) >= len(rec) {
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: too few fields", summary.Rows+1))
			continue
		}
		date, ok := util.ParseDate(rec[dateIdx])
		if !ok {
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: unparseable date %q", summary.Rows+1, rec[dateIdx]))
			continue
		}
		positive, err := parseCount(rec[posIdx])
		if err != nil || positive < 0 {
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: bad positive count %q", summary.Rows+1, rec[posIdx]))
			continue
		}
		total, err := parseCount(rec[totalIdx])
		if err != nil || total < 0 {
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: bad total count %q", summary.Rows+1, rec[totalIdx]))
			continue
		}

		tests = append(tests, models.LabTest{
			Date:          date,
			Disease:       disease,
			TotalTests:    total,
			PositiveTests: positive,
		})
	}

	if err := im.processor.ProcessLabTests(ctx, tests); err != nil {
		return nil, err
	}
	summary.Imported = len(tests)

	if im.logger != nil {
		im.logger.Info("lab file imported",
			logger.String("disease", disease.String()),
			logger.Int("rows", summary.Rows),
			logger.Int("imported", summary.Imported),
			logger.Int("row_errors", len(summary.RowErrors)),
		)
	}
	return summary, nil
}

// ImportPharmacy reads a pharmacy sales CSV, classifies the file against
// the medicine catalog and tags each record with its medicine's disease
// category. An unclassifiable file still imports; the summary just carries
// no disease.
func (im *Importer) ImportPharmacy(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("importer: file is empty")
		}
		return nil, fmt.Errorf("importer: reading header: %w", err)
	}

	dateIdx := findAnyColumn(header, pharmacyDateColumns)
	medIdx := findAnyColumn(header, pharmacyMedicineColumns)
	saleIdx := findAnyColumn(header, pharmacySalesColumns)

	var missing []string
	if dateIdx < 0 {
		missing = append(missing, "date")
	}
	if medIdx < 0 {
		missing = append(missing, "brand_name or medicine")
	}
	if saleIdx < 0 {
		missing = append(missing, "total_sales or sales")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("importer: missing required columns: %s (found: %s)",
			strings.Join(missing, ", "), strings.Join(header, ", "))
	}

	summary := &ImportSummary{Kind: "pharmacy"}
	matchCount := make(map[models.Disease]int)
	var sales []models.MedicineSale
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: reading row %d: %w", summary.Rows+2, err)
		}
		summary.Rows++

		if max(dateIdx, medIdx, saleIdx) >= len(rec) {
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: too few fields", summary.Rows+1))
			continue
		}
		date, ok := util.ParseDate(rec[dateIdx])
		if !ok {
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: unparseable date %q", summary.Rows+1, rec[dateIdx]))
			continue
		}
		medicine := strings.TrimSpace(rec[medIdx])
		if medicine == "" {
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: empty medicine name", summary.Rows+1))
			continue
		}
		sale, err := strconv.ParseFloat(strings.TrimSpace(rec[saleIdx]), 64)
		if err != nil || sale < 0 {
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: bad sales value %q", summary.Rows+1, rec[saleIdx]))
			continue
		}

		for _, d := range models.DetectMedicineDiseases(medicine) {
			matchCount[d]++
		}
		sales = append(sales, models.MedicineSale{
			Date:            date,
			Medicine:        medicine,
			Sale:            sale,
			DiseaseCategory: models.MedicineCategory(medicine),
		})
	}

	summary.Disease = classifyFile(matchCount)
	if summary.Disease == "" && im.logger != nil {
		im.logger.Warn("pharmacy file not classified",
			logger.Int("rows", summary.Rows),
			logger.Any("matches", matchCount),
		)
	}

	if err := im.processor.ProcessSales(ctx, sales); err != nil {
		return nil, err
	}
	summary.Imported = len(sales)

	if im.logger != nil {
		im.logger.Info("pharmacy file imported",
			logger.String("disease", summary.Disease.String()),
			logger.Int("rows", summary.Rows),
			logger.Int("imported", summary.Imported),
			logger.Int("row_errors", len(summary.RowErrors)),
		)
	}
	return summary, nil
}

// classifyFile picks the disease with the most catalog matches, requiring
// at least classifyThreshold. Ties resolve in favor of dengue, then
// malaria, then diarrhoea, mirroring the catalog's match order.
func classifyFile(matchCount map[models.Disease]int) models.Disease {
	var best models.Disease
	bestCount := 0
	for _, d := range []models.Disease{models.DiseaseDengue, models.DiseaseMalaria, models.DiseaseDiarrhoea} {
		if matchCount[d] > bestCount {
			best = d
			bestCount = matchCount[d]
		}
	}
	if bestCount < classifyThreshold {
		return ""
	}
	return best
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) == name {
			return i
		}
	}
	return -1
}

func findAnyColumn(header []string, names []string) int {
	for i, h := range header {
		col := strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if col == name {
				return i
			}
		}
	}
	return -1
}

// parseCount accepts integer counts, tolerating float formatting from
// spreadsheet exports ("140.0").
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
