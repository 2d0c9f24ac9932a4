package incapacity

// Summarize folds a record list into dashboard counters. Pure so every
// caller (handlers, reports, jobs) aggregates the same way.
func Summarize(records []Record) Stats {
	stats := Stats{ByType: make(map[string]int)}
	for _, rec := range records {
		stats.Total++
		stats.TotalDays += rec.TotalDays
		stats.ByType[rec.Type]++
		switch rec.State {
		case StateReported:
			stats.Reported++
		case StateInReview:
			stats.InReview++
		case StateValidated:
			stats.Validated++
		case StateRejected:
			stats.Rejected++
		case StatePaid:
			stats.Paid++
		case StateReconciled:
			stats.Reconciled++
		case StateArchived:
			stats.Archived++
		}
	}
	return stats
}
