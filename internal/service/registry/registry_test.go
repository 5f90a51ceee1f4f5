package registry

import (
    "context"
    "errors"
    "os"
    "testing"
    "time"

    "EpiCast/internal/domain/models"
    "EpiCast/pkg/cache"
    "EpiCast/pkg/randomforest"
)

func trainedModel(t *testing.T, d models.Disease, seed int64) *models.TrainedModel {
    t.Helper()
    x := [][]float64{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}, {7, 8}}
    y := []float64{1, 2, 3, 4, 5, 6, 7, 8}
    forest, err := randomforest.Fit(x, y, randomforest.WithTrees(5), randomforest.WithSeed(seed))
    if err != nil {
        t.Fatalf("Fit: %v", err)
    }
    return &models.TrainedModel{
        Disease:        d,
        FeatureColumns: []string{"a", "b"},
        Metrics:        models.ModelMetrics{Algorithm: "RandomForest", Trees: 5, TrainSamples: len(y)},
        Regressor:      forest,
        TrainedAt:      time.Now().UTC(),
    }
}

func TestSaveLoadRoundTrip(t *testing.T) {
    reg := New(t.TempDir(), cache.NewMemoryCache(), nil)
    model := trainedModel(t, models.DiseaseDengue, 3)

    path, err := reg.Save(context.Background(), model)
    if err != nil {
        t.Fatalf("Save: %v", err)
    }
    if path != reg.Path(models.DiseaseDengue) {
        t.Fatalf("path = %s, want %s", path, reg.Path(models.DiseaseDengue))
    }
    if _, err := os.Stat(path); err != nil {
        t.Fatalf("artifact missing: %v", err)
    }

    got, err := reg.Load(context.Background(), models.DiseaseDengue)
    if err != nil {
        t.Fatalf("Load: %v", err)
    }
    probe := []float64{2.5, 3.5}
    if got.Regressor.Predict(probe) != model.Regressor.Predict(probe) {
        t.Fatal("reloaded model predicts differently")
    }
    if len(got.FeatureColumns) != 2 || got.FeatureColumns[0] != "a" {
        t.Fatalf("feature columns = %v", got.FeatureColumns)
    }
    if got.Metrics.TrainSamples != 8 {
        t.Fatalf("TrainSamples = %d", got.Metrics.TrainSamples)
    }
}

func TestLoadMissingModel(t *testing.T) {
    reg := New(t.TempDir(), cache.NewMemoryCache(), nil)

    _, err := reg.Load(context.Background(), models.DiseaseMalaria)
    var nfe *ModelNotFoundError
    if !errors.As(err, &nfe) {
        t.Fatalf("want ModelNotFoundError, got %v", err)
    }
    if nfe.Disease != models.DiseaseMalaria {
        t.Fatalf("Disease = %s", nfe.Disease)
    }
}

func TestSaveOverwritesLatest(t *testing.T) {
    reg := New(t.TempDir(), cache.NewMemoryCache(), nil)
    ctx := context.Background()

    first := trainedModel(t, models.DiseaseDengue, 3)
    second := trainedModel(t, models.DiseaseDengue, 99)
    probe := []float64{1.5, 2.5}
    if first.Regressor.Predict(probe) == second.Regressor.Predict(probe) {
        t.Skip("seeds produced identical forests; probe cannot discriminate")
    }

    if _, err := reg.Save(ctx, first); err != nil {
        t.Fatalf("first Save: %v", err)
    }
    if _, err := reg.Save(ctx, second); err != nil {
        t.Fatalf("second Save: %v", err)
    }

    got, err := reg.Load(ctx, models.DiseaseDengue)
    if err != nil {
        t.Fatalf("Load: %v", err)
    }
    if got.Regressor.Predict(probe) != second.Regressor.Predict(probe) {
        t.Fatal("load did not return the latest artifact")
    }
}

func TestSaveSlotBusy(t *testing.T) {
    locks := cache.NewMemoryCache()
    reg := New(t.TempDir(), locks, nil)
    ctx := context.Background()

    held, err := locks.TryLock(ctx, lockKey(models.DiseaseDengue), time.Minute)
    if err != nil || !held {
        t.Fatalf("pre-lock failed: held=%v err=%v", held, err)
    }

    if _, err := reg.Save(ctx, trainedModel(t, models.DiseaseDengue, 3)); !errors.Is(err, ErrSlotBusy) {
        t.Fatalf("want ErrSlotBusy, got %v", err)
    }
}

func TestSaveReleasesSlot(t *testing.T) {
    reg := New(t.TempDir(), cache.NewMemoryCache(), nil)
    ctx := context.Background()

    if _, err := reg.Save(ctx, trainedModel(t, models.DiseaseDengue, 3)); err != nil {
        t.Fatalf("first Save: %v", err)
    }
    if _, err := reg.Save(ctx, trainedModel(t, models.DiseaseDengue, 4)); err != nil {
        t.Fatalf("second Save after release: %v", err)
    }
}

func TestSaveRejectsUnusableModel(t *testing.T) {
    reg := New(t.TempDir(), cache.NewMemoryCache(), nil)

    if _, err := reg.Save(context.Background(), &models.TrainedModel{Disease: models.DiseaseDengue}); err == nil {
        t.Fatal("want error for model without regressor")
    }
    if _, err := reg.Save(context.Background(), nil); err == nil {
        t.Fatal("want error for nil model")
    }
}

func TestLoadRejectsMismatchedArtifact(t *testing.T) {
    reg := New(t.TempDir(), cache.NewMemoryCache(), nil)
    ctx := context.Background()

    if _, err := reg.Save(ctx, trainedModel(t, models.DiseaseDengue, 3)); err != nil {
        t.Fatalf("Save: %v", err)
    }
    data, err := os.ReadFile(reg.Path(models.DiseaseDengue))
    if err != nil {
        t.Fatalf("read: %v", err)
    }
    if err := os.WriteFile(reg.Path(models.DiseaseMalaria), data, 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }

    if _, err := reg.Load(ctx, models.DiseaseMalaria); err == nil {
        t.Fatal("want error for artifact belonging to another disease")
    }
}

func TestLoadCorruptArtifact(t *testing.T) {
    reg := New(t.TempDir(), cache.NewMemoryCache(), nil)

    if err := os.WriteFile(reg.Path(models.DiseaseDengue), []byte("{not json"), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    if _, err := reg.Load(context.Background(), models.DiseaseDengue); err == nil {
        t.Fatal("want error for corrupt artifact")
    }
}
