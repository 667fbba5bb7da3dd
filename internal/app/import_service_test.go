package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/warden/internal/models"
)

const scanCSV = `ID,Name,Power,Killpoints,Alliance
11111,Alice,"50,123,456","1,200,000",KoA
22222,Bob,"30,000,000","800,000",
`

func writeScan(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportService_ImportFile(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	path := writeScan(t, dir, "TOP250-2025-12-29-3328-[gs1dp0ow].csv", scanCSV)

	result := f.imports.ImportFile(context.Background(), path, 0)
	require.Equal(t, models.FileOK, result.Outcome, result.Message)
	require.Equal(t, 2, result.Imported)

	var count int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM governor_snapshots").Scan(&count))
	require.Equal(t, 2, count)
}

func TestImportService_ImportFile_Idempotent(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	path := writeScan(t, dir, "TOP250-2025-12-29-3328-[gs1dp0ow].csv", scanCSV)
	ctx := context.Background()

	require.Equal(t, models.FileOK, f.imports.ImportFile(ctx, path, 0).Outcome)

	// Same content under a different scan id on the same day: same
	// fingerprint, so a skip, not a second snapshot.
	other := writeScan(t, dir, "TOP250-2025-12-29-3328-[zzzzzzzz].csv", scanCSV)
	result := f.imports.ImportFile(ctx, other, 0)
	require.Equal(t, models.FileSkipped, result.Outcome)

	var count int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM ingest_files").Scan(&count))
	require.Equal(t, 1, count)
}

func TestImportService_ImportFolder(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	writeScan(t, dir, "TOP250-2025-12-29-3328-[aaaa].csv", scanCSV)
	writeScan(t, dir, "TOP250-2025-12-30-3328-[bbbb].csv", scanCSV)
	writeScan(t, dir, "broken-2025-12-30-3328-[cccc].csv", "ID,Name,Power\n11111,Alice,not-a-number\n")
	writeScan(t, dir, "notes.txt", "not a scan")

	result, err := f.imports.ImportFolder(ctx, dir, 0)
	require.NoError(t, err)
	require.Equal(t, 2, result.NewImports)
	require.Equal(t, 0, result.Skipped)
	require.Equal(t, 1, result.Errors, "one corrupt file must not abort the batch")
	require.Len(t, result.PerFile, 3, "non-CSV files are not part of the batch")

	// Re-running the whole batch only re-reports the corrupt file.
	rerun, err := f.imports.ImportFolder(ctx, dir, 0)
	require.NoError(t, err)
	require.Equal(t, 0, rerun.NewImports)
	require.Equal(t, 2, rerun.Skipped)
	require.Equal(t, 1, rerun.Errors)
}

func TestImportService_ImportFile_FallbackKingdom(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	path := writeScan(t, dir, "export.csv", scanCSV)

	// No kingdom in the filename: the caller's kingdom wins over the
	// configured default.
	result := f.imports.ImportFile(context.Background(), path, 1476)
	require.Equal(t, models.FileOK, result.Outcome, result.Message)

	var kingdom int
	require.NoError(t, f.db.QueryRow("SELECT kingdom FROM ingest_files WHERE source_file = 'export.csv'").Scan(&kingdom))
	require.Equal(t, 1476, kingdom)
}

func TestImportService_ImportFile_NoKingdom(t *testing.T) {
	f := newFixture(t)
	f.imports.defaultKingdom = 0
	dir := t.TempDir()
	path := writeScan(t, dir, "export.csv", scanCSV)

	result := f.imports.ImportFile(context.Background(), path, 0)
	require.Equal(t, models.FileError, result.Outcome)
	require.Contains(t, result.Message, "kingdom")
}
