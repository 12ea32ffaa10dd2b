package jobstore_test

import (
	"context"
	"testing"
	"time"

	"bookreel/internal/jobstore"
	"bookreel/internal/testsupport"
)

func sampleRecord(jobID string) jobstore.Record {
	return jobstore.Record{
		JobID:        jobID,
		Title:        "The Sea Road",
		Author:       "A. Voyager",
		Language:     "en",
		Mode:         "parallel",
		Status:       jobstore.StatusSucceeded,
		VideoLocator: "/out/" + jobID + ".mp4",
		OverallScore: 0.91,
		TotalCost:    1.37,
		TotalRetries: 2,
		Scenes: []jobstore.SceneSummary{
			{Number: 1, Role: "hook", Status: "success"},
			{Number: 2, Role: "journey", Status: "success", Retries: 2, LastError: "provider timeout"},
			{Number: 3, Role: "promise", Status: "success"},
		},
	}
}

func TestInsertAndGet(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	id, err := store.Insert(ctx, sampleRecord("job-1"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id <= 0 {
		t.Errorf("id = %d", id)
	}

	record, found, err := store.GetByJobID(ctx, "job-1")
	if err != nil || !found {
		t.Fatalf("GetByJobID: found=%v err=%v", found, err)
	}
	if record.Title != "The Sea Road" || record.Status != jobstore.StatusSucceeded {
		t.Errorf("record = %+v", record)
	}
	if len(record.Scenes) != 3 || record.Scenes[1].Retries != 2 {
		t.Errorf("scenes = %+v", record.Scenes)
	}
	if record.CreatedAt.IsZero() {
		t.Error("CreatedAt not defaulted")
	}
}

func TestGetMissing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, found, err := store.GetByJobID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if found {
		t.Error("found should be false")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	older := sampleRecord("job-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if _, err := store.Insert(ctx, older); err != nil {
		t.Fatal(err)
	}
	newer := sampleRecord("job-new")
	if _, err := store.Insert(ctx, newer); err != nil {
		t.Fatal(err)
	}

	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d", len(records))
	}
	if records[0].JobID != "job-new" || records[1].JobID != "job-old" {
		t.Errorf("order = %s, %s", records[0].JobID, records[1].JobID)
	}
}

func TestClear(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := store.Insert(ctx, sampleRecord(id)); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d", removed)
	}
	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("records remain: %d", len(records))
	}
}

func TestInsertRequiresJobID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Insert(context.Background(), jobstore.Record{}); err == nil {
		t.Error("expected error for missing job id")
	}
}

func TestSecondOpenBlocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	_ = first

	if _, err := jobstore.Open(cfg); err == nil {
		t.Error("second open on the same store should fail while locked")
	}
}
