package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const seedYAML = `
templates:
  - id: hotel-teaser
    title: Hotel teaser
    duration: 5
    tags: [hotel]
    script: '={"clips":[{"order":1,"duration":3},{"order":2,"duration":2}]}'
  - id: ""
    title: Skipped, no id
    script: '={"clips":[]}'
  - id: no-script
    title: Skipped, no script
`

func TestSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	repo := NewMemoryRepo()
	n, err := SeedFromFile(context.Background(), repo, path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 1 {
		t.Fatalf("seeded %d templates, want 1", n)
	}

	tpl, err := repo.GetByID(context.Background(), "hotel-teaser")
	if err != nil {
		t.Fatalf("get seeded template: %v", err)
	}
	if tpl.Title != "Hotel teaser" || len(tpl.Tags) != 1 {
		t.Fatalf("seeded template = %+v", tpl)
	}

	// Re-seeding is idempotent.
	n, err = SeedFromFile(context.Background(), repo, path)
	if err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if n != 0 {
		t.Fatalf("re-seed created %d templates, want 0", n)
	}
}

func TestSeedFromFileMissing(t *testing.T) {
	n, err := SeedFromFile(context.Background(), NewMemoryRepo(), filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || n != 0 {
		t.Fatalf("missing seed file: n=%d err=%v", n, err)
	}
}
