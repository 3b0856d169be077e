package repair_test

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"servicedesk/internal/cargo"
	"servicedesk/internal/config"
	"servicedesk/internal/metrics"
	"servicedesk/internal/photostore"
	"servicedesk/internal/repair"
	"servicedesk/internal/repairmeta"
	"servicedesk/internal/services"
	"servicedesk/internal/testsupport"
)

var frozen = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

type fixture struct {
	cfg     *config.Config
	store   *cargo.Store
	metrics *metrics.Metrics
	svc     *repair.Service
}

func newFixture(t *testing.T, opts ...repair.Option) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithDefaultTechnician("Bench Tech"))
	store := testsupport.MustOpenStore(t, cfg)
	m := metrics.New()
	base := []repair.Option{
		repair.WithClock(func() time.Time { return frozen }),
		repair.WithMetrics(m),
		repair.WithLock(cfg.LockPath(), 200*time.Millisecond),
		repair.WithDefaultTechnician(cfg.Repair.DefaultTechnician),
		repair.WithPhotoStore(photostore.NewLocal(cfg.Paths.PhotoDir)),
	}
	svc := repair.New(store, append(base, opts...)...)
	return fixture{cfg: cfg, store: store, metrics: m, svc: svc}
}

func costs(labor float64, parts ...repairmeta.SparePart) repair.UpdateInput {
	return repair.UpdateInput{LaborCost: &labor, SpareParts: parts}
}

func TestOpenAttachesPayloadAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "TRK-1", "Screen cracked\nCustomer waiting")

	view, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{
		TechnicianID: "t-7",
		Operations:   []string{"  replace   screen ", ""},
		Note:         "start",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if view.CleanText != "Screen cracked\nCustomer waiting" {
		t.Fatalf("unexpected clean text %q", view.CleanText)
	}
	meta := view.Meta
	if meta == nil || !meta.Active || meta.Status != repairmeta.StatusPending {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if meta.TechnicianName != "Bench Tech" || meta.TechnicianID != "t-7" {
		t.Fatalf("unexpected technician %q/%q", meta.TechnicianName, meta.TechnicianID)
	}
	if len(meta.Operations) != 1 || meta.Operations[0] != "replace screen" {
		t.Fatalf("unexpected operations %v", meta.Operations)
	}
	if len(meta.History) != 1 || meta.History[0].Action != repair.ActionOpened {
		t.Fatalf("unexpected history %+v", meta.History)
	}
	if meta.History[0].At != "2024-03-09T14:30:00.000Z" || meta.UpdatedAt != "2024-03-09T14:30:00.000Z" {
		t.Fatalf("unexpected stamps %q %q", meta.History[0].At, meta.UpdatedAt)
	}

	stored, err := f.store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != cargo.StatusInRepair {
		t.Fatalf("expected cargo status %s, got %s", cargo.StatusInRepair, stored.Status)
	}
	if !strings.HasPrefix(stored.Notes, "Screen cracked\nCustomer waiting\n"+repairmeta.Marker) {
		t.Fatalf("unexpected stored notes %q", stored.Notes)
	}
	expected := `
# HELP servicedesk_repair_actions_total Repair actions applied to cargo notes, by action.
# TYPE servicedesk_repair_actions_total counter
servicedesk_repair_actions_total{action="open"} 1
`
	if err := testutil.GatherAndCompare(f.metrics.Gatherer(), strings.NewReader(expected), "servicedesk_repair_actions_total"); err != nil {
		t.Fatalf("actions metric: %v", err)
	}
}

func TestOpenRejectsActiveRepair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "TRK-2", "")

	if _, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{}); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	before, _ := f.store.GetByID(ctx, rec.ID)

	_, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{})
	if !errors.Is(err, repair.ErrRepairActive) {
		t.Fatalf("expected ErrRepairActive, got %v", err)
	}
	if services.Kind(err) != services.KindConflict {
		t.Fatalf("expected conflict kind, got %q", services.Kind(err))
	}
	after, _ := f.store.GetByID(ctx, rec.ID)
	if before.Notes != after.Notes {
		t.Fatalf("notes changed on rejected open")
	}
	expected := `
# HELP servicedesk_repair_errors_total Repair actions that failed, by action and error kind.
# TYPE servicedesk_repair_errors_total counter
servicedesk_repair_errors_total{action="open",kind="conflict"} 1
`
	if err := testutil.GatherAndCompare(f.metrics.Gatherer(), strings.NewReader(expected), "servicedesk_repair_errors_total"); err != nil {
		t.Fatalf("errors metric: %v", err)
	}
}

func TestProgressAndCompleteCosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "TRK-3", "Battery swelling")

	if _, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{TechnicianName: "Ana"}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	view, err := f.svc.Progress(ctx, rec.ID, costs(40, repairmeta.SparePart{Name: "Battery", Quantity: 2, UnitCost: 12.5}))
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if view.Meta.Status != repairmeta.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", view.Meta.Status)
	}
	if view.Meta.PartsCost != 25 || view.Meta.LaborCost != 40 || view.Meta.TotalCost != 65 {
		t.Fatalf("unexpected costs %+v", view.Meta)
	}

	// Labor only: spare parts and parts cost stay.
	labor := 55.0
	view, err = f.svc.Complete(ctx, rec.ID, repair.UpdateInput{LaborCost: &labor, Action: "Handed back"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	meta := view.Meta
	if meta.Active || meta.Status != repairmeta.StatusCompleted {
		t.Fatalf("expected closed repair, got %+v", meta)
	}
	if meta.PartsCost != 25 || meta.TotalCost != 80 || len(meta.SpareParts) != 1 {
		t.Fatalf("unexpected costs after complete %+v", meta)
	}
	if len(meta.History) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(meta.History))
	}
	last := meta.History[2]
	if last.Action != "Handed back" || last.TotalCost != 80 || last.TechnicianName != "Ana" {
		t.Fatalf("unexpected last entry %+v", last)
	}
	if view.Record.Status != cargo.StatusRepaired {
		t.Fatalf("expected cargo repaired, got %s", view.Record.Status)
	}
	if view.CleanText != "Battery swelling" {
		t.Fatalf("clean text changed: %q", view.CleanText)
	}
	count, err := testutil.GatherAndCount(f.metrics.Gatherer(), "servicedesk_repair_total_cost")
	if err != nil || count != 1 {
		t.Fatalf("expected cost histogram series, got %d (%v)", count, err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "TRK-4", "")

	if _, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := f.svc.Complete(ctx, rec.ID, costs(10)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	view, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{Note: "came back"})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(view.Meta.History) != 3 {
		t.Fatalf("expected history to survive reopen, got %d entries", len(view.Meta.History))
	}
	if view.Meta.TotalCost != 0 || len(view.Meta.SpareParts) != 0 || !view.Meta.Active {
		t.Fatalf("expected fresh costs on reopen, got %+v", view.Meta)
	}
}

func TestUpdateRequiresActiveRepair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "TRK-5", "plain notes")

	_, err := f.svc.Progress(ctx, rec.ID, repair.UpdateInput{})
	if !errors.Is(err, repair.ErrNoActiveRepair) {
		t.Fatalf("expected ErrNoActiveRepair, got %v", err)
	}
	stored, _ := f.store.GetByID(ctx, rec.ID)
	if stored.Notes != "plain notes" {
		t.Fatalf("notes changed: %q", stored.Notes)
	}
}

func TestUpdateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "TRK-6", "")
	if _, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	negative := -1.0
	cases := []struct {
		name  string
		input repair.UpdateInput
	}{
		{"negative labor", repair.UpdateInput{LaborCost: &negative}},
		{"unnamed part", costs(0, repairmeta.SparePart{Quantity: 1})},
		{"negative quantity", costs(0, repairmeta.SparePart{Name: "Fan", Quantity: -2})},
		{"negative unit cost", costs(0, repairmeta.SparePart{Name: "Fan", Quantity: 1, UnitCost: -3})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Progress(ctx, rec.ID, tc.input)
			if services.Kind(err) != services.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAttachPhotoStoresFileAndURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "trk-7", "")

	view, err := f.svc.AttachPhoto(ctx, rec.ID, "Front.JPG", bytes.NewReader([]byte("jpeg-bytes")))
	if err != nil {
		t.Fatalf("AttachPhoto: %v", err)
	}
	url := view.Meta.ImageURL
	if !strings.HasPrefix(url, "file://") || !strings.Contains(url, "/cargo/trk-7/") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("unexpected image url %q", url)
	}
	if len(view.Meta.History) != 1 || view.Meta.History[0].Action != repair.ActionPhoto || view.Meta.History[0].Note != url {
		t.Fatalf("unexpected history %+v", view.Meta.History)
	}
	// A payload created by a photo starts from the default state.
	if !view.Meta.Active || view.Meta.Status != repairmeta.StatusPending {
		t.Fatalf("unexpected default meta %+v", view.Meta)
	}
}

func TestAttachPhotoWithoutStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	rec := testsupport.NewCargo(t, store, "TRK-8", "")
	svc := repair.New(store)

	_, err := svc.AttachPhoto(context.Background(), rec.ID, "a.jpg", strings.NewReader("x"))
	if services.Kind(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAddNoteKeepsPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "TRK-9", "first line")

	view, err := f.svc.AddNote(ctx, rec.ID, "called customer")
	if err != nil {
		t.Fatalf("AddNote without payload: %v", err)
	}
	if view.Record.Notes != "first line\ncalled customer" || view.Meta != nil {
		t.Fatalf("unexpected notes %q meta %+v", view.Record.Notes, view.Meta)
	}

	if _, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	view, err = f.svc.AddNote(ctx, rec.ID, "parts ordered")
	if err != nil {
		t.Fatalf("AddNote with payload: %v", err)
	}
	if view.CleanText != "first line\ncalled customer\nparts ordered" {
		t.Fatalf("unexpected clean text %q", view.CleanText)
	}
	if view.Meta == nil || len(view.Meta.History) != 1 {
		t.Fatalf("payload lost: %+v", view.Meta)
	}
	lines := strings.Split(view.Record.Notes, "\n")
	if !strings.HasPrefix(lines[len(lines)-1], repairmeta.Marker) {
		t.Fatalf("payload line should stay last: %q", view.Record.Notes)
	}
}

func TestAddNoteRejectsMarkerLines(t *testing.T) {
	f := newFixture(t)
	rec := testsupport.NewCargo(t, f.store, "TRK-10", "")

	for _, text := range []string{"", "   ", repairmeta.Marker + "{}", "ok\n" + repairmeta.Marker + "{\"active\":false}"} {
		if _, err := f.svc.AddNote(context.Background(), rec.ID, text); services.Kind(err) != services.KindValidation {
			t.Fatalf("AddNote(%q): expected validation error, got %v", text, err)
		}
	}
}

func TestMissingCargo(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Open(context.Background(), 404, repair.OpenInput{})
	if !errors.Is(err, cargo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Show(context.Background(), 404); !errors.Is(err, cargo.ErrNotFound) {
		t.Fatalf("Show: expected ErrNotFound, got %v", err)
	}
}

func TestLockBusy(t *testing.T) {
	f := newFixture(t)
	rec := testsupport.NewCargo(t, f.store, "TRK-11", "")

	held := flock.New(f.cfg.LockPath())
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	_, err = f.svc.Open(context.Background(), rec.ID, repair.OpenInput{})
	if !errors.Is(err, repair.ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}
}

func TestZeroLockTimeoutTriesOnce(t *testing.T) {
	f := newFixture(t)
	svc := repair.New(f.store, repair.WithLock(f.cfg.LockPath(), 0))
	ctx := context.Background()
	rec := testsupport.NewCargo(t, f.store, "TRK-12", "")

	if _, err := svc.Open(ctx, rec.ID, repair.OpenInput{}); err != nil {
		t.Fatalf("Open with free lock failed: %v", err)
	}

	held := flock.New(f.cfg.LockPath())
	if locked, err := held.TryLock(); err != nil || !locked {
		t.Fatalf("TryLock: locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	if _, err := svc.Progress(ctx, rec.ID, costs(10)); !errors.Is(err, repair.ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return count
}

func TestAttachPhotoFailureStoresNothing(t *testing.T) {
	tests := []struct {
		name    string
		hold    bool
		missing bool
		want    error
	}{
		{name: "lock busy", hold: true, want: repair.ErrLockBusy},
		{name: "missing cargo", missing: true, want: cargo.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := testsupport.NewCargo(t, f.store, "TRK-13", "")
			id := rec.ID
			if tt.missing {
				id = rec.ID + 100
			}
			if tt.hold {
				held := flock.New(f.cfg.LockPath())
				if locked, err := held.TryLock(); err != nil || !locked {
					t.Fatalf("TryLock: locked=%v err=%v", locked, err)
				}
				t.Cleanup(func() { _ = held.Unlock() })
			}

			_, err := f.svc.AttachPhoto(context.Background(), id, "front.jpg", bytes.NewReader([]byte("jpeg")))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if n := countFiles(t, f.cfg.Paths.PhotoDir); n != 0 {
				t.Fatalf("expected no stored photos, found %d", n)
			}
		})
	}
}

func TestOpenRejectsClosedCargo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, status := range []cargo.Status{cargo.StatusDelivered, cargo.StatusCancelled} {
		rec := testsupport.NewCargo(t, f.store, "TRK-"+string(status), "Returned unit")
		if err := f.store.UpdateStatus(ctx, rec.ID, status); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		_, err := f.svc.Open(ctx, rec.ID, repair.OpenInput{})
		if !errors.Is(err, repair.ErrCargoClosed) {
			t.Fatalf("%s: expected ErrCargoClosed, got %v", status, err)
		}
		if services.Kind(err) != services.KindConflict {
			t.Fatalf("%s: expected conflict kind, got %q", status, services.Kind(err))
		}
		got, err := f.store.GetByID(ctx, rec.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Notes != "Returned unit" || got.Status != status {
			t.Fatalf("%s: record changed: %+v", status, got)
		}
	}
}

func TestProgressKeepsForeignHistoryEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	legacy := `{"at":"2023-12-01T08:00:00.000Z","action":"Imported","laborCost":"30","source":"legacy-desk"}`
	notes := "Imported unit\n" + repairmeta.Marker +
		`{"active":true,"status":"in_progress","technicianName":"Ayse","history":[` + legacy + `,"call logged"]}`
	rec := testsupport.NewCargo(t, f.store, "TRK-14", notes)

	view, err := f.svc.Progress(ctx, rec.ID, costs(20))
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(view.Meta.History) != 3 {
		t.Fatalf("expected 3 history entries, got %+v", view.Meta.History)
	}
	stored, err := f.store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !strings.Contains(stored.Notes, `"history":[`+legacy+`,"call logged",{`) {
		t.Fatalf("foreign history entries were rewritten: %s", stored.Notes)
	}
}
