package storage

import (
	"fmt"
	"strings"
	"testing"
)

func TestNextPendingQueryOrdering(t *testing.T) {
	t.Parallel()

	query, args, err := nextPendingQuery()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	if !strings.Contains(query, "ORDER BY priority DESC, created_at ASC") {
		t.Fatalf("drain ordering missing: %s", query)
	}
	if !strings.Contains(query, "LIMIT 1") {
		t.Fatalf("candidate limit missing: %s", query)
	}
	if len(args) != 1 || fmt.Sprint(args[0]) != "pending" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestClaimQueryIsConditional(t *testing.T) {
	t.Parallel()

	query, args, err := claimQuery("item-1", "Initializing worker...")
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	if !strings.Contains(query, "status = $") {
		t.Fatalf("claim is not guarded on status: %s", query)
	}
	if !strings.Contains(query, "id = $") {
		t.Fatalf("claim is not keyed on id: %s", query)
	}
	if !strings.Contains(query, "RETURNING "+queueColumns) {
		t.Fatalf("claim does not return the row: %s", query)
	}

	if len(args) != 4 {
		t.Fatalf("unexpected arg count %d: %v", len(args), args)
	}
	want := map[string]bool{"item-1": true, "Initializing worker...": true, "processing": true, "pending": true}
	for _, arg := range args {
		delete(want, fmt.Sprint(arg))
	}
	if len(want) != 0 {
		t.Fatalf("missing args %v in %v", want, args)
	}
}
