package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"inventory-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// ErrImportBusy means another CSV import for the same workspace is already
// running. Imports are serialized per workspace.
var ErrImportBusy = errors.New("inventory: csv import already in progress")

var csvHeader = []string{"sku", "name", "description", "category_id", "location_id", "quantity", "unit_price_minor"}

const (
	// MaxImportRows bounds a single upload, header excluded.
	MaxImportRows = 5000

	importCapTTL = 10 * time.Minute
)

// RowError ties a rejected CSV row to its 1-based line number (header is
// line 1, so data rows start at 2).
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImportResult struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Importer parses item CSV uploads and feeds rows through the audited
// create path one at a time. rdb may be nil in tests, which skips the
// per-workspace serialization.
type Importer struct {
	svc *Service
	rdb *redis.Client
	log *slog.Logger
}

func NewImporter(svc *Service, rdb *redis.Client, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{svc: svc, rdb: rdb, log: log}
}

func importCapKey(workspaceID string) string {
	return "inventory:csv:import:" + workspaceID
}

// ImportItemsCSV reads the upload, validates the header and each row, and
// creates valid rows. Row failures do not abort the import; they come back
// line-numbered in the result.
func (im *Importer) ImportItemsCSV(ctx context.Context, workspaceID, actorID string, src io.Reader) (ImportResult, error) {
	if workspaceID == "" || actorID == "" {
		return ImportResult{}, ErrInvalidArgument
	}

	if im.rdb != nil {
		ok, err := utils.AcquireConcurrencyCap(ctx, im.rdb, importCapKey(workspaceID), 1, importCapTTL)
		if err != nil {
			return ImportResult{}, fmt.Errorf("inventory: acquire import slot: %w", err)
		}
		if !ok {
			return ImportResult{}, ErrImportBusy
		}
		defer func() {
			if err := utils.ReleaseConcurrencyCap(context.WithoutCancel(ctx), im.rdb, importCapKey(workspaceID)); err != nil {
				im.log.Warn("csv import: release slot failed", "workspace_id", workspaceID, "error", err)
			}
		}()
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("inventory: csv header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		if line-1 > MaxImportRows {
			return ImportResult{}, fmt.Errorf("inventory: csv exceeds %d rows", MaxImportRows)
		}

		params, err := parseRow(workspaceID, record)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		if _, err := im.svc.CreateItem(ctx, params, actorID); err != nil {
			res.Failed++
			msg := "create failed"
			switch {
			case errors.Is(err, ErrConflict):
				msg = fmt.Sprintf("sku %q already exists", params.SKU)
			case errors.Is(err, ErrInvalidArgument):
				msg = "invalid row"
			}
			res.Errors = append(res.Errors, RowError{Line: line, Message: msg})
			continue
		}
		res.Imported++
	}

	im.log.Info("csv import finished",
		"workspace_id", workspaceID,
		"imported", res.Imported,
		"failed", res.Failed,
	)
	return res, nil
}

func validateHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return fmt.Errorf("inventory: csv header must be %q", strings.Join(csvHeader, ","))
	}
	for i, col := range header {
		if strings.ToLower(strings.TrimSpace(col)) != csvHeader[i] {
			return fmt.Errorf("inventory: csv header column %d must be %q, got %q", i+1, csvHeader[i], col)
		}
	}
	return nil
}

func parseRow(workspaceID string, record []string) (CreateItemParams, error) {
	sku := strings.TrimSpace(record[0])
	name := strings.TrimSpace(record[1])
	if sku == "" {
		return CreateItemParams{}, errors.New("sku is required")
	}
	if name == "" {
		return CreateItemParams{}, errors.New("name is required")
	}

	quantity := 0
	if v := strings.TrimSpace(record[5]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return CreateItemParams{}, fmt.Errorf("quantity %q must be a non-negative integer", v)
		}
		quantity = n
	}

	var price int64
	if v := strings.TrimSpace(record[6]); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return CreateItemParams{}, fmt.Errorf("unit_price_minor %q must be a non-negative integer", v)
		}
		price = n
	}

	return CreateItemParams{
		WorkspaceID:    workspaceID,
		SKU:            sku,
		Name:           name,
		Description:    strings.TrimSpace(record[2]),
		CategoryID:     strings.TrimSpace(record[3]),
		LocationID:     strings.TrimSpace(record[4]),
		Quantity:       quantity,
		UnitPriceMinor: price,
	}, nil
}
