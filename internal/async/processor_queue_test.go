package async

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
	"github.com/mestsky-urad/zuvp-pipeline/internal/extract"
	"github.com/mestsky-urad/zuvp-pipeline/internal/ingest"
	"github.com/mestsky-urad/zuvp-pipeline/internal/normalize"
	"github.com/mestsky-urad/zuvp-pipeline/internal/notify"
	"github.com/mestsky-urad/zuvp-pipeline/internal/pipeline"
	"github.com/mestsky-urad/zuvp-pipeline/internal/render"
	"github.com/mestsky-urad/zuvp-pipeline/internal/store"
)

type fixedExtractor struct {
	res entity.ExtractionResult
}

func (f *fixedExtractor) Extract(context.Context, []byte, string) (entity.ExtractionResult, error) {
	return f.res, nil
}

func newQueueProcessor(t *testing.T, res entity.ExtractionResult) (*pipeline.Processor, *store.MemoryStore) {
	t.Helper()
	cache, err := extract.NewCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	ingestor, err := ingest.NewFSIngestor(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFSIngestor: %v", err)
	}
	renderer, err := render.NewTextRenderer(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewTextRenderer: %v", err)
	}
	drafts := store.NewMemoryStore()
	proc := pipeline.NewProcessor(nil, ingestor, cache, &fixedExtractor{res: res},
		normalize.New(7), renderer, &notify.LogNotifier{}, drafts, 10)
	return proc, drafts
}

func writeSubmission(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestQueueProcessesAndArchives(t *testing.T) {
	proc, drafts := newQueueProcessor(t, entity.ExtractionResult{Fields: map[string]any{
		"applicant_name":    "Jan Novák",
		"purpose_of_use":    "stánek",
		"specific_location": "Náměstí Míru 12",
	}})
	q := NewProcessorQueue(proc, nil, WithWorkers(2), WithProcessTimeout(time.Minute))

	watchDir := t.TempDir()
	paths := []string{
		writeSubmission(t, watchDir, "a.txt", "first submission"),
		writeSubmission(t, watchDir, "b.txt", "second submission"),
	}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{Path: p, SubmittedAt: time.Now()}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if drafts.Len() != 2 {
		t.Errorf("store holds %d drafts, want 2", drafts.Len())
	}
	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("drafted file %s was not archived", p)
		}
		archived := filepath.Join(watchDir, "processed", filepath.Base(p))
		if _, err := os.Stat(archived); err != nil {
			t.Errorf("archive missing for %s: %v", p, err)
		}
	}
}

func TestQueueLeavesRejectedFilesInPlace(t *testing.T) {
	proc, drafts := newQueueProcessor(t, entity.ExtractionResult{RawResponse: "not a zuvp"})
	q := NewProcessorQueue(proc, nil, WithWorkers(1))

	path := writeSubmission(t, t.TempDir(), "faktura.txt", "an invoice")
	if err := q.Enqueue(context.Background(), Job{Path: path, SubmittedAt: time.Now()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if drafts.Len() != 0 {
		t.Errorf("rejected submission created %d drafts", drafts.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("rejected file must stay for clerk inspection: %v", err)
	}
}

func TestQueueConcurrentProducersUnderBackpressure(t *testing.T) {
	proc, drafts := newQueueProcessor(t, entity.ExtractionResult{Fields: map[string]any{
		"applicant_name":    "Jan Novák",
		"purpose_of_use":    "stánek",
		"specific_location": "Náměstí Míru 12",
	}})
	// A one-slot buffer forces the blocking-send path while producers and
	// Shutdown contend for the lock.
	q := NewProcessorQueue(proc, nil, WithWorkers(2), WithQueueSize(1))

	watchDir := t.TempDir()
	const producers, perProducer = 4, 5
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				path := writeSubmission(t, watchDir, fmt.Sprintf("s%d_%d.txt", p, i), "submission")
				if err := q.Enqueue(context.Background(), Job{Path: path, SubmittedAt: time.Now()}); err != nil {
					t.Errorf("Enqueue: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := drafts.Len(); got != producers*perProducer {
		t.Errorf("store holds %d drafts, want %d", got, producers*perProducer)
	}
}

func TestQueueEnqueueAfterShutdownIsNoop(t *testing.T) {
	proc, drafts := newQueueProcessor(t, entity.ExtractionResult{})
	q := NewProcessorQueue(proc, nil, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
	q.Shutdown(ctx) // second shutdown must not panic

	path := writeSubmission(t, t.TempDir(), "late.txt", "too late")
	if err := q.Enqueue(context.Background(), Job{Path: path, SubmittedAt: time.Now()}); err != nil {
		t.Fatalf("Enqueue after shutdown: %v", err)
	}
	if drafts.Len() != 0 {
		t.Error("job enqueued after shutdown was processed")
	}
}
