package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/duckdb"
	"github.com/tinytelemetry/unfold/internal/model"
)

func TestSampleGrid(t *testing.T) {
	t.Parallel()

	samples, err := Sample(context.Background(), deploy.Default(), 5)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	if len(samples) != len(want) {
		t.Fatalf("len(samples) = %d, want %d", len(samples), len(want))
	}
	for i, p := range want {
		if samples[i].Progress != p {
			t.Fatalf("samples[%d].Progress = %v, want %v", i, samples[i].Progress, p)
		}
		if samples[i].State != deploy.Evaluate(p) {
			t.Fatalf("samples[%d].State differs from Evaluate(%v)", i, p)
		}
	}
	if samples[4].EventIndex != 12 {
		t.Fatalf("last EventIndex = %d, want 12", samples[4].EventIndex)
	}
}

func TestSampleMinimumTwo(t *testing.T) {
	t.Parallel()

	samples, err := Sample(context.Background(), deploy.Default(), 0)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
}

func TestSampleCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Sample(ctx, deploy.Default(), 1000); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sample err = %v, want context.Canceled", err)
	}
}

type failingWriter struct{}

func (failingWriter) ReplaceProfile([]model.ProfileSample, deploy.Timeline) error {
	return errors.New("disk full")
}

func TestExportWrapsWriterError(t *testing.T) {
	t.Parallel()

	err := Export(context.Background(), failingWriter{}, deploy.Default(), 10, zerolog.Nop())
	if err == nil || err.Error() != "store profile: disk full" {
		t.Fatalf("Export err = %v", err)
	}
}

func TestExportToStore(t *testing.T) {
	store, err := duckdb.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := Export(context.Background(), store, deploy.Default(), 101, zerolog.Nop()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	counts, err := store.TableRowCounts()
	if err != nil {
		t.Fatalf("TableRowCounts: %v", err)
	}
	if counts["motion_profile"] != 101 || counts["milestones"] != 13 {
		t.Fatalf("counts = %v", counts)
	}
}
