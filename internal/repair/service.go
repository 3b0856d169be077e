package repair

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"servicedesk/internal/cargo"
	"servicedesk/internal/logging"
	"servicedesk/internal/metrics"
	"servicedesk/internal/photostore"
	"servicedesk/internal/repairmeta"
	"servicedesk/internal/services"
)

// Operation names used for logging and metrics labels.
const (
	OpOpen     = "open"
	OpProgress = "progress"
	OpComplete = "complete"
	OpPhoto    = "photo"
	OpNote     = "note"
)

// Default history actions.
const (
	ActionOpened    = "Repair opened"
	ActionUpdated   = "Repair updated"
	ActionCompleted = "Repair completed"
	ActionPhoto     = "Photo attached"
)

const lockRetryDelay = 50 * time.Millisecond

// RecordStore is the persistence the service needs. *cargo.Store satisfies it.
type RecordStore interface {
	GetByID(ctx context.Context, id int64) (*cargo.Record, error)
	Update(ctx context.Context, record *cargo.Record) error
}

// View is a decoded cargo record.
type View struct {
	Record    *cargo.Record    `json:"record"`
	CleanText string           `json:"cleanText"`
	Meta      *repairmeta.Meta `json:"meta"`
}

// Service applies repair operations to cargo notes.
type Service struct {
	store             RecordStore
	photos            photostore.Store
	metrics           *metrics.Metrics
	logger            *slog.Logger
	now               func() time.Time
	codec             *repairmeta.Codec
	lockPath          string
	lockTimeout       time.Duration
	defaultTechnician string
	newID             func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithPhotoStore sets the backend used by AttachPhoto.
func WithPhotoStore(store photostore.Store) Option {
	return func(s *Service) { s.photos = store }
}

// WithMetrics records outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for history and updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLock serializes mutations across processes through the file at path.
// With a timeout of zero or less the lock is tried once.
func WithLock(path string, timeout time.Duration) Option {
	return func(s *Service) {
		s.lockPath = path
		s.lockTimeout = timeout
	}
}

// WithDefaultTechnician names the technician recorded when Open gets none.
func WithDefaultTechnician(name string) Option {
	return func(s *Service) { s.defaultTechnician = name }
}

// New constructs a Service over store.
func New(store RecordStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "repair")
	s.codec = repairmeta.New(repairmeta.WithClock(s.now))
	return s
}

// Show decodes a record without modifying it.
func (s *Service) Show(ctx context.Context, cargoID int64) (View, error) {
	record, err := s.store.GetByID(ctx, cargoID)
	if err != nil {
		return View{}, err
	}
	return s.view(record), nil
}

// Open starts a repair. It fails with ErrRepairActive while an earlier repair
// is active and not completed.
func (s *Service) Open(ctx context.Context, cargoID int64, input OpenInput) (View, error) {
	input = input.normalized(s.defaultTechnician)
	return s.mutate(ctx, OpOpen, cargoID, func(record *cargo.Record, meta *repairmeta.Meta) (string, error) {
		if record.Status.IsTerminal() {
			return "", fmt.Errorf("%w (status %s)", ErrCargoClosed, record.Status)
		}
		if meta != nil && meta.Active && meta.Status != repairmeta.StatusCompleted {
			return "", fmt.Errorf("%w (status %s, technician %q)", ErrRepairActive, meta.Status, meta.TechnicianName)
		}
		entry := repairmeta.HistoryEntry{
			At:             repairmeta.FormatTimestamp(s.now()),
			Action:         ActionOpened,
			TechnicianName: input.TechnicianName,
			Operations:     input.Operations,
			Note:           input.Note,
		}
		patch := repairmeta.Patch{
			Active:         repairmeta.Ptr(true),
			TechnicianID:   repairmeta.Ptr(input.TechnicianID),
			TechnicianName: repairmeta.Ptr(input.TechnicianName),
			Operations:     input.Operations,
			ImageURL:       repairmeta.Ptr(""),
			Note:           repairmeta.Ptr(input.Note),
			SpareParts:     []repairmeta.SparePart{},
			LaborCost:      repairmeta.Ptr(0.0),
			PartsCost:      repairmeta.Ptr(0.0),
			TotalCost:      repairmeta.Ptr(0.0),
			Status:         repairmeta.Ptr(repairmeta.StatusPending),
		}
		record.Status = cargo.StatusInRepair
		return s.codec.AppendHistory(record.Notes, entry, &patch), nil
	})
}

// Progress records work on an active repair and moves it to in_progress.
func (s *Service) Progress(ctx context.Context, cargoID int64, input UpdateInput) (View, error) {
	return s.update(ctx, OpProgress, cargoID, input, repairmeta.StatusInProgress, ActionUpdated)
}

// Complete records the final state of an active repair and closes it.
func (s *Service) Complete(ctx context.Context, cargoID int64, input UpdateInput) (View, error) {
	view, err := s.update(ctx, OpComplete, cargoID, input, repairmeta.StatusCompleted, ActionCompleted)
	if err == nil && view.Meta != nil {
		s.metrics.RepairCompleted(view.Meta.TotalCost)
	}
	return view, err
}

func (s *Service) update(ctx context.Context, op string, cargoID int64, input UpdateInput, status repairmeta.Status, defaultAction string) (View, error) {
	input, err := input.normalized(op)
	if err != nil {
		return View{}, s.fail(ctx, op, cargoID, err)
	}
	return s.mutate(ctx, op, cargoID, func(record *cargo.Record, meta *repairmeta.Meta) (string, error) {
		if meta == nil || !meta.Active {
			return "", ErrNoActiveRepair
		}
		next := meta.Clone()
		if input.Operations != nil {
			next.Operations = input.Operations
		}
		if input.SpareParts != nil {
			next.SpareParts = input.SpareParts
			next.PartsCost = next.PartsTotal()
		}
		if input.LaborCost != nil {
			next.LaborCost = *input.LaborCost
		}
		next.TotalCost = next.LaborCost + next.PartsCost

		action := input.Action
		if action == "" {
			action = defaultAction
		}
		entry := repairmeta.HistoryEntry{
			At:             repairmeta.FormatTimestamp(s.now()),
			Action:         action,
			TechnicianName: next.TechnicianName,
			Operations:     next.Operations,
			LaborCost:      next.LaborCost,
			PartsCost:      next.PartsCost,
			TotalCost:      next.TotalCost,
		}
		patch := repairmeta.Patch{
			Operations: next.Operations,
			SpareParts: next.SpareParts,
			LaborCost:  repairmeta.Ptr(next.LaborCost),
			PartsCost:  repairmeta.Ptr(next.PartsCost),
			TotalCost:  repairmeta.Ptr(next.TotalCost),
			Status:     repairmeta.Ptr(status),
		}
		if input.Note != nil {
			entry.Note = *input.Note
			patch.Note = input.Note
		}
		if status == repairmeta.StatusCompleted {
			patch.Active = repairmeta.Ptr(false)
			record.Status = cargo.StatusRepaired
		}
		return s.codec.AppendHistory(record.Notes, entry, &patch), nil
	})
}

// AttachPhoto uploads a photo and records its URL on the repair payload. The
// upload runs while the repair lock is held, so a busy lock or missing record
// stores nothing.
func (s *Service) AttachPhoto(ctx context.Context, cargoID int64, filename string, body io.Reader) (View, error) {
	if s.photos == nil {
		return View{}, s.fail(ctx, OpPhoto, cargoID,
			services.Wrap(services.ErrConfiguration, "repair", OpPhoto, "no photo store configured", nil))
	}

	var key, url string
	view, err := s.mutate(ctx, OpPhoto, cargoID, func(record *cargo.Record, meta *repairmeta.Meta) (string, error) {
		key = photostore.ObjectKey(record.TrackingNumber, filename)
		stored, err := s.photos.Put(ctx, key, photostore.ContentType(filename), body)
		if err != nil {
			key = ""
			return "", services.Wrap(services.ErrTransient, "repair", OpPhoto, "store photo", err)
		}
		url = stored

		entry := repairmeta.HistoryEntry{
			At:     repairmeta.FormatTimestamp(s.now()),
			Action: ActionPhoto,
			Note:   url,
		}
		if meta != nil {
			entry.TechnicianName = meta.TechnicianName
			entry.Operations = meta.Operations
			entry.LaborCost = meta.LaborCost
			entry.PartsCost = meta.PartsCost
			entry.TotalCost = meta.TotalCost
		}
		return s.codec.AppendHistory(record.Notes, entry, &repairmeta.Patch{ImageURL: &url}), nil
	})
	if err != nil && url != "" {
		logging.WarnWithContext(logging.WithContext(s.annotate(ctx, OpPhoto, cargoID), s.logger),
			"photo stored without a repair reference", "repair_photo_orphaned",
			logging.String("object_key", key),
			logging.String("url", url),
			logging.Error(err),
			logging.String(logging.FieldImpact, "uploaded photo is not linked from the cargo notes"),
			logging.String(logging.FieldErrorHint, "retry the attach or delete the object"),
		)
	}
	return view, err
}

// AddNote appends a human-authored line to the notes while keeping the
// payload. The payload is re-encoded only when one exists.
func (s *Service) AddNote(ctx context.Context, cargoID int64, text string) (View, error) {
	text, err := checkNoteLine(OpNote, text)
	if err != nil {
		return View{}, s.fail(ctx, OpNote, cargoID, err)
	}
	return s.mutate(ctx, OpNote, cargoID, func(record *cargo.Record, meta *repairmeta.Meta) (string, error) {
		clean, _ := s.codec.Decode(record.Notes)
		if clean != "" {
			clean += "\n"
		}
		notes := repairmeta.Compose(clean+text, meta)
		if meta != nil {
			notes = s.codec.Upsert(notes, repairmeta.Patch{})
		}
		return notes, nil
	})
}

type mutation func(record *cargo.Record, meta *repairmeta.Meta) (string, error)

func (s *Service) mutate(ctx context.Context, op string, cargoID int64, apply mutation) (View, error) {
	ctx = s.annotate(ctx, op, cargoID)
	logger := logging.WithContext(ctx, s.logger)

	unlock, err := s.acquire(ctx)
	if err != nil {
		return View{}, s.fail(ctx, op, cargoID, err)
	}
	defer unlock()

	record, err := s.store.GetByID(ctx, cargoID)
	if err != nil {
		return View{}, s.fail(ctx, op, cargoID, err)
	}
	_, meta := s.codec.Decode(record.Notes)

	notes, err := apply(record, meta)
	if err != nil {
		return View{}, s.fail(ctx, op, cargoID, err)
	}
	record.Notes = notes
	if err := s.store.Update(ctx, record); err != nil {
		return View{}, s.fail(ctx, op, cargoID, fmt.Errorf("save cargo %d: %w", cargoID, err))
	}

	view := s.view(record)
	s.metrics.ActionApplied(op)
	attrs := []logging.Attr{logging.String("cargo_status", string(record.Status))}
	if view.Meta != nil {
		attrs = append(attrs,
			logging.String("repair_status", string(view.Meta.Status)),
			logging.Float64("total_cost", view.Meta.TotalCost),
			logging.Int("history_len", len(view.Meta.History)),
		)
	}
	logger.Info("repair "+op+" applied", logging.Args(attrs...)...)
	return view, nil
}

func (s *Service) annotate(ctx context.Context, op string, cargoID int64) context.Context {
	if _, ok := logging.CorrelationIDFromContext(ctx); !ok {
		ctx = logging.WithCorrelationID(ctx, s.newID())
	}
	ctx = logging.WithCargoID(ctx, cargoID)
	return logging.WithOperation(ctx, op)
}

func (s *Service) fail(ctx context.Context, op string, cargoID int64, err error) error {
	ctx = s.annotate(ctx, op, cargoID)
	kind := services.Kind(err)
	s.metrics.ActionFailed(op, kind)

	logger := logging.WithContext(ctx, s.logger)
	switch kind {
	case services.KindValidation, services.KindConflict, services.KindNotFound:
		logging.WarnWithContext(logger, "repair "+op+" rejected", "repair_rejected",
			logging.String("error_kind", kind),
			logging.Error(err),
			logging.String(logging.FieldImpact, "cargo notes left unchanged"),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
	default:
		logging.ErrorWithContext(logger, "repair "+op+" failed", "repair_failed",
			logging.String("error_kind", kind),
			logging.Error(err),
		)
	}
	return err
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, ErrRepairActive):
		return "complete the active repair before opening another"
	case errors.Is(err, ErrCargoClosed):
		return "delivered or cancelled cargo cannot be repaired; register it again"
	case errors.Is(err, ErrNoActiveRepair):
		return "open a repair first with 'servicedesk repair open'"
	case errors.Is(err, ErrLockBusy):
		return "another servicedesk command is writing; retry shortly"
	case errors.Is(err, cargo.ErrNotFound):
		return "check the cargo ID with 'servicedesk cargo list'"
	default:
		return "fix the input and retry"
	}
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	if s.lockPath == "" {
		return func() {}, nil
	}
	lock := flock.New(s.lockPath)
	started := time.Now()
	locked, err := s.tryLock(ctx, lock)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquire repair lock: %w", err)
	}
	if !locked {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", ErrLockBusy, s.lockPath)
	}
	logging.WithContext(ctx, s.logger).Debug("repair lock acquired",
		logging.String("lock", s.lockPath),
		logging.Duration("wait", time.Since(started)),
	)
	return func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(s.logger, "failed to release repair lock", "repair_lock_release_failed",
				logging.String("lock", s.lockPath), logging.Error(err))
		}
	}, nil
}

func (s *Service) view(record *cargo.Record) View {
	clean, meta := s.codec.Decode(record.Notes)
	return View{Record: record, CleanText: clean, Meta: meta}
}

func (s *Service) tryLock(ctx context.Context, lock *flock.Flock) (bool, error) {
	if s.lockTimeout <= 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		return lock.TryLock()
	}
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	return lock.TryLockContext(lockCtx, lockRetryDelay)
}
