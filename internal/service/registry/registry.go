package registry

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "EpiCast/internal/domain/models"
    "EpiCast/pkg/cache"
    "EpiCast/pkg/logger"
)

const defaultLockTTL = time.Minute

// ErrSlotBusy is returned when another writer holds a disease's artifact
// slot. Callers retry or surface the conflict; the lock expires on its own
// if the holder dies.
var ErrSlotBusy = errors.New("registry: model slot is held by another writer")

// ModelNotFoundError is returned when no artifact has been saved yet for a
// disease.
type ModelNotFoundError struct {
    Disease models.Disease
    Path    string
}

func (e *ModelNotFoundError) Error() string {
    return fmt.Sprintf("registry: no trained model for %s at %s", e.Disease, e.Path)
}

// Registry keeps one JSON artifact per disease on disk, latest-wins. Writes
// go through a temp file and rename so readers never observe a partial
// artifact, and a per-disease cache lock serializes concurrent writers.
type Registry struct {
    dir     string
    locks   cache.Service
    lockTTL time.Duration
    logger  *logger.Logger
}

type Option func(*Registry)

func WithLockTTL(d time.Duration) Option {
    return func(r *Registry) { r.lockTTL = d }
}

func New(dir string, locks cache.Service, log *logger.Logger, opts ...Option) *Registry {
    r := &Registry{dir: dir, locks: locks, lockTTL: defaultLockTTL, logger: log}
    for _, opt := range opts {
        opt(r)
    }
    return r
}

// Path returns the artifact location for a disease, whether or not one
// exists yet.
func (r *Registry) Path(d models.Disease) string {
    return filepath.Join(r.dir, fmt.Sprintf("%s_model.json", d))
}

// Save claims the disease's slot, serializes the model and atomically
// replaces any previous artifact. Returns the artifact path.
func (r *Registry) Save(ctx context.Context, model *models.TrainedModel) (string, error) {
    if model == nil || model.Regressor == nil {
        return "", errors.New("registry: refusing to save a model without a regressor")
    }
    if _, ok := models.SpecFor(model.Disease); !ok {
        return "", fmt.Errorf("registry: unknown disease %q", model.Disease)
    }

    key := lockKey(model.Disease)
    ok, err := r.locks.TryLock(ctx, key, r.lockTTL)
    if err != nil {
        return "", fmt.Errorf("registry: acquiring slot lock: %w", err)
    }
    if !ok {
        return "", ErrSlotBusy
    }
    defer func() {
        _ = r.locks.Unlock(context.Background(), key)
    }()

    if err := os.MkdirAll(r.dir, 0o755); err != nil {
        return "", fmt.Errorf("registry: creating %s: %w", r.dir, err)
    }

    data, err := json.Marshal(model)
    if err != nil {
        return "", fmt.Errorf("registry: serializing model for %s: %w", model.Disease, err)
    }

    path := r.Path(model.Disease)
    tmp := path + ".tmp"
    if err := os.WriteFile(tmp, data, 0o644); err != nil {
        return "", fmt.Errorf("registry: writing %s: %w", tmp, err)
    }
    if err := os.Rename(tmp, path); err != nil {
        return "", fmt.Errorf("registry: publishing %s: %w", path, err)
    }

    if r.logger != nil {
        r.logger.Info("model artifact saved",
            logger.String("disease", model.Disease.String()),
            logger.String("path", path),
            logger.Int("bytes", len(data)),
        )
    }
    return path, nil
}

// Load reads the latest artifact for a disease and validates it is usable.
func (r *Registry) Load(ctx context.Context, d models.Disease) (*models.TrainedModel, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }

    path := r.Path(d)
    data, err := os.ReadFile(path)
    if err != nil {
        if errors.Is(err, os.ErrNotExist) {
            return nil, &ModelNotFoundError{Disease: d, Path: path}
        }
        return nil, fmt.Errorf("registry: reading %s: %w", path, err)
    }

    var model models.TrainedModel
    if err := json.Unmarshal(data, &model); err != nil {
        return nil, fmt.Errorf("registry: corrupt artifact %s: %w", path, err)
    }
    if model.Disease != d {
        return nil, fmt.Errorf("registry: artifact %s belongs to %s, not %s", path, model.Disease, d)
    }
    if model.Regressor == nil || len(model.FeatureColumns) == 0 {
        return nil, fmt.Errorf("registry: artifact %s has no usable model", path)
    }
    return &model, nil
}

func lockKey(d models.Disease) string {
    return fmt.Sprintf("registry:model:%s", d)
}
