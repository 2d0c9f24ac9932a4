package incapacity

import "testing"

func TestSummarize(t *testing.T) {
	records := []Record{
		{State: StateReported, Type: TypeEPS, TotalDays: 3},
		{State: StateReported, Type: TypeARL, TotalDays: 10},
		{State: StateInReview, Type: TypeEPS, TotalDays: 2},
		{State: StateValidated, Type: TypeMaternity, TotalDays: 126},
		{State: StateRejected, Type: TypeEPS, TotalDays: 1},
		{State: StatePaid, Type: TypeEPS, TotalDays: 5},
		{State: StateReconciled, Type: TypeARL, TotalDays: 7},
		{State: StateArchived, Type: TypePaternity, TotalDays: 14},
	}

	stats := Summarize(records)

	if stats.Total != 8 {
		t.Fatalf("expected total 8, got %d", stats.Total)
	}
	if stats.Reported != 2 || stats.InReview != 1 || stats.Validated != 1 || stats.Rejected != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.Paid != 1 || stats.Reconciled != 1 || stats.Archived != 1 {
		t.Fatalf("unexpected terminal counts: %+v", stats)
	}
	if stats.TotalDays != 168 {
		t.Fatalf("expected 168 total days, got %d", stats.TotalDays)
	}
	if stats.ByType[TypeEPS] != 4 || stats.ByType[TypeARL] != 2 {
		t.Fatalf("unexpected type counts: %+v", stats.ByType)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	if stats.Total != 0 || stats.TotalDays != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if stats.ByType == nil {
		t.Fatal("expected initialized type map")
	}
}
