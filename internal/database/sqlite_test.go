package database

import (
	"testing"
	"time"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/config"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if err := store.MigrateUp(); err != nil {
		t.Fatalf("migrating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string       { return &s }
func int64Ptr(n int64) *int64       { return &n }
func boolPtr(b bool) *bool          { return &b }
func uint64Ptr(v uint64) *uint64    { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func imageRecord(path string) *model.FileRecord {
	return &model.FileRecord{
		Path:      path,
		SizeBytes: 1234,
		SHA256Raw: "aabbccdd00112233aabbccdd00112233aabbccdd00112233aabbccdd00112233",
		FileType:  model.FileTypeImage,
		Width:     int64Ptr(640),
		Height:    int64Ptr(480),
		PHash:     strPtr("00ff00ff00ff00ff"),
		DHash:     strPtr("0123456789abcdef"),
		AvgHash:   strPtr("fedcba9876543210"),
		ColorHash: strPtr("8000000000000001"),
		Status:    model.StatusOK,
		ScannedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func pdfRecord(path string) *model.FileRecord {
	return &model.FileRecord{
		Path:            path,
		SizeBytes:       99999,
		SHA256Raw:       "1111111111111111111111111111111111111111111111111111111111111111",
		SHA256Canonical: strPtr("2222222222222222222222222222222222222222222222222222222222222222"),
		FileType:        model.FileTypePDF,
		PDFPages:        int64Ptr(3),
		PDFHasText:      boolPtr(true),
		PDFSimHash:      uint64Ptr(0xdeadbeefcafe0001),
		Status:          model.StatusOK,
		ScannedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertFileInsert(t *testing.T) {
	store := newTestStore(t)

	record := imageRecord("/photos/a.jpg")
	record.ExifDatetime = timePtr(time.Date(2020, 6, 15, 9, 30, 0, 0, time.UTC))
	id, err := store.UpsertFile(record, nil)
	if err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	got, err := store.FindFileByPath("/photos/a.jpg")
	if err != nil {
		t.Fatalf("FindFileByPath: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.ID != id {
		t.Errorf("expected id %s, got %s", id, got.ID)
	}
	if got.FileType != model.FileTypeImage {
		t.Errorf("expected image type, got %s", got.FileType)
	}
	if got.PHash == nil || *got.PHash != "00ff00ff00ff00ff" {
		t.Errorf("phash did not round-trip: %v", got.PHash)
	}
	if got.ExifDatetime == nil || !got.ExifDatetime.Equal(*record.ExifDatetime) {
		t.Errorf("exif datetime did not round-trip: %v", got.ExifDatetime)
	}
	if got.PDFPages != nil {
		t.Error("image record should have nil pdf_pages")
	}
}

func TestUpsertFileUpdateKeepsID(t *testing.T) {
	store := newTestStore(t)

	first := imageRecord("/photos/a.jpg")
	firstID, err := store.UpsertFile(first, nil)
	if err != nil {
		t.Fatalf("first UpsertFile: %v", err)
	}

	second := imageRecord("/photos/a.jpg")
	second.SizeBytes = 5678
	second.PHash = strPtr("ffffffffffffffff")
	second.ScannedAt = first.ScannedAt.Add(time.Hour)
	secondID, err := store.UpsertFile(second, nil)
	if err != nil {
		t.Fatalf("second UpsertFile: %v", err)
	}

	if firstID != secondID {
		t.Errorf("re-scan created a new row: %s != %s", firstID, secondID)
	}

	got, err := store.FindFileByPath("/photos/a.jpg")
	if err != nil {
		t.Fatalf("FindFileByPath: %v", err)
	}
	if got.SizeBytes != 5678 {
		t.Errorf("expected refreshed size 5678, got %d", got.SizeBytes)
	}
	if got.PHash == nil || *got.PHash != "ffffffffffffffff" {
		t.Errorf("phash not refreshed: %v", got.PHash)
	}
	if !got.ScannedAt.After(first.ScannedAt) {
		t.Errorf("scanned_at not refreshed: %v", got.ScannedAt)
	}

	all, err := store.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 row after re-scan, got %d", len(all))
	}
}

func TestUpsertFileReplacesPages(t *testing.T) {
	store := newTestStore(t)

	record := pdfRecord("/docs/report.pdf")
	firstPages := []model.PdfPageRecord{
		{PageIndex: 0, PHash: "1111111111111111", Width: 850, Height: 1100},
		{PageIndex: 1, PHash: "2222222222222222", Width: 850, Height: 1100},
		{PageIndex: 2, PHash: "3333333333333333", Width: 850, Height: 1100},
	}
	id, err := store.UpsertFile(record, firstPages)
	if err != nil {
		t.Fatalf("first UpsertFile: %v", err)
	}

	// Re-scan with a narrower sample replaces the page set wholesale.
	secondPages := []model.PdfPageRecord{
		{PageIndex: 0, PHash: "4444444444444444", Width: 850, Height: 1100},
	}
	if _, err := store.UpsertFile(pdfRecord("/docs/report.pdf"), secondPages); err != nil {
		t.Fatalf("second UpsertFile: %v", err)
	}

	pages, err := store.FindPagesByFile(id)
	if err != nil {
		t.Fatalf("FindPagesByFile: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page after re-scan, got %d", len(pages))
	}
	if pages[0].PHash != "4444444444444444" {
		t.Errorf("stale page row survived: %s", pages[0].PHash)
	}
	if pages[0].ImageID != id {
		t.Errorf("page row points at wrong file: %s", pages[0].ImageID)
	}
}

func TestSimHashHighBitRoundTrip(t *testing.T) {
	store := newTestStore(t)

	record := pdfRecord("/docs/highbit.pdf")
	record.PDFSimHash = uint64Ptr(0xffff000000000001)
	if _, err := store.UpsertFile(record, nil); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}

	got, err := store.FindFileByPath("/docs/highbit.pdf")
	if err != nil {
		t.Fatalf("FindFileByPath: %v", err)
	}
	if got.PDFSimHash == nil || *got.PDFSimHash != 0xffff000000000001 {
		t.Errorf("simhash with high bit set did not round-trip: %v", got.PDFSimHash)
	}
	if got.PDFHasText == nil || !*got.PDFHasText {
		t.Errorf("pdf_has_text did not round-trip: %v", got.PDFHasText)
	}
}

func TestFindFileByPathNotFound(t *testing.T) {
	store := newTestStore(t)

	got, err := store.FindFileByPath("/never/scanned.jpg")
	if err != nil {
		t.Fatalf("FindFileByPath: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unscanned path, got %+v", got)
	}
}

func TestListFilesOrderedByPath(t *testing.T) {
	store := newTestStore(t)

	for _, path := range []string{"/z/last.jpg", "/a/first.jpg", "/m/middle.jpg"} {
		if _, err := store.UpsertFile(imageRecord(path), nil); err != nil {
			t.Fatalf("UpsertFile %s: %v", path, err)
		}
	}

	all, err := store.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	want := []string{"/a/first.jpg", "/m/middle.jpg", "/z/last.jpg"}
	for i, record := range all {
		if record.Path != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], record.Path)
		}
	}
}

func TestScanRunLifecycle(t *testing.T) {
	store := newTestStore(t)

	run, err := store.CreateScanRun("scan", "/photos recursive=true")
	if err != nil {
		t.Fatalf("CreateScanRun: %v", err)
	}
	if run.ID == 0 {
		t.Error("expected non-zero run id")
	}
	if run.Status != "running" {
		t.Errorf("expected status running, got %s", run.Status)
	}

	if err := store.FinishScanRun(run.ID, "success"); err != nil {
		t.Fatalf("FinishScanRun: %v", err)
	}

	runs, err := store.ListScanRuns(10)
	if err != nil {
		t.Fatalf("ListScanRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Status != "success" {
		t.Errorf("expected status success, got %s", runs[0].Status)
	}
	if runs[0].FinishedAt == nil {
		t.Error("expected finished_at to be set")
	}
}

func TestListScanRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)

	for _, op := range []string{"scan", "watch", "scan"} {
		if _, err := store.CreateScanRun(op, ""); err != nil {
			t.Fatalf("CreateScanRun: %v", err)
		}
	}

	runs, err := store.ListScanRuns(2)
	if err != nil {
		t.Fatalf("ListScanRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit of 2 runs, got %d", len(runs))
	}
	if runs[0].ID < runs[1].ID {
		t.Error("expected newest run first")
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := NewStoreFromConfig(config.DatabaseConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewStoreFromConfig: %v", err)
		}
		defer store.Close()

		// Memory stores are migrated on open.
		if _, err := store.UpsertFile(imageRecord("/x.jpg"), nil); err != nil {
			t.Errorf("UpsertFile on fresh memory store: %v", err)
		}
	})

	t.Run("sqlite requires data_dir", func(t *testing.T) {
		if _, err := NewStoreFromConfig(config.DatabaseConfig{Type: "sqlite"}); err == nil {
			t.Error("expected error for missing data_dir")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewStoreFromConfig(config.DatabaseConfig{Type: "postgres"}); err == nil {
			t.Error("expected error for unknown type")
		}
	})
}
