package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/warden/internal/core/scan"
	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// ImportServiceImpl implements the ImportService interface.
type ImportServiceImpl struct {
	ingestRepo secondary.IngestRepository
	// defaultKingdom is used when neither the filename nor the caller
	// supplies a kingdom.
	defaultKingdom int
	logger         *zap.Logger
	now            func() time.Time
}

// NewImportService creates an ImportService.
func NewImportService(ingestRepo secondary.IngestRepository, defaultKingdom int, logger *zap.Logger) *ImportServiceImpl {
	return &ImportServiceImpl{
		ingestRepo:     ingestRepo,
		defaultKingdom: defaultKingdom,
		logger:         logger,
		now:            time.Now,
	}
}

// ImportFolder imports every CSV in the folder, sorted by name for a
// stable batch order. Files are independent: one corrupt file is
// reported and the rest of the batch proceeds.
func (s *ImportServiceImpl) ImportFolder(ctx context.Context, dir string, fallbackKingdom int) (*models.ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	result := &models.ImportResult{}
	for _, name := range names {
		fr := s.ImportFile(ctx, filepath.Join(dir, name), fallbackKingdom)
		result.PerFile = append(result.PerFile, fr)
		switch fr.Outcome {
		case models.FileOK:
			result.NewImports++
		case models.FileSkipped:
			result.Skipped++
		case models.FileError:
			result.Errors++
		}
	}

	s.logger.Info("import batch finished",
		zap.String("dir", dir),
		zap.Int("new", result.NewImports),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))
	return result, nil
}

// ImportFile imports a single scan file. The fingerprint check makes
// this idempotent: the same physical scan is only ever one snapshot no
// matter how often it is submitted.
func (s *ImportServiceImpl) ImportFile(ctx context.Context, path string, fallbackKingdom int) models.FileResult {
	name := filepath.Base(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return fileError(name, fmt.Sprintf("read failed: %v", err))
	}

	fingerprint := scan.Fingerprint(content, name)
	exists, err := s.ingestRepo.FingerprintExists(ctx, fingerprint)
	if err != nil {
		return fileError(name, fmt.Sprintf("fingerprint check failed: %v", err))
	}
	if exists {
		return models.FileResult{File: name, Outcome: models.FileSkipped, Message: "already imported"}
	}

	kingdom := scan.KingdomFromFilename(name)
	if kingdom == 0 {
		kingdom = fallbackKingdom
	}
	if kingdom == 0 {
		kingdom = s.defaultKingdom
	}
	if kingdom == 0 {
		return fileError(name, "cannot determine kingdom from filename")
	}

	rows, err := scan.ParseCSV(strings.NewReader(string(content)))
	if err != nil {
		return fileError(name, fmt.Sprintf("parse failed: %v", err))
	}

	file := &models.IngestFile{
		Kingdom:     kingdom,
		ScanType:    scanTypeFromFilename(name),
		SourceFile:  name,
		Fingerprint: fingerprint,
		SnapshotID:  uuid.NewString(),
	}
	if err := s.ingestRepo.ImportSnapshot(ctx, file, rows, s.now().UTC()); err != nil {
		if errors.Is(err, models.ErrDuplicateImport) {
			// lost a concurrent-import race; same outcome as the
			// fingerprint pre-check
			return models.FileResult{File: name, Outcome: models.FileSkipped, Message: "already imported"}
		}
		return fileError(name, fmt.Sprintf("import failed: %v", err))
	}

	s.logger.Info("scan imported",
		zap.String("file", name),
		zap.Int("kingdom", kingdom),
		zap.String("scan_type", string(file.ScanType)),
		zap.Int("governors", len(rows)))
	return models.FileResult{File: name, Outcome: models.FileOK, Imported: len(rows)}
}

func fileError(name, msg string) models.FileResult {
	return models.FileResult{File: name, Outcome: models.FileError, Message: msg}
}

// scanTypeFromFilename classifies a scan by its filename. The scanner
// prefixes exports with the scan mode; kingdom scans carry none.
func scanTypeFromFilename(name string) models.ScanType {
	low := strings.ToLower(name)
	switch {
	case strings.Contains(low, "alliance"):
		return models.ScanAlliance
	case strings.Contains(low, "honor"):
		return models.ScanHonor
	case strings.Contains(low, "seed"):
		return models.ScanSeed
	default:
		return models.ScanKingdom
	}
}

// Ensure ImportServiceImpl implements the interface
var _ primary.ImportService = (*ImportServiceImpl)(nil)
