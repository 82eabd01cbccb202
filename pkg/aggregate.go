package pkg

// AggregateByDate collapses records into date -> status. The first record seen for a date wins;
// records without a date are skipped.
func AggregateByDate(records []AttendanceRecord) map[string]string {
	byDate := make(map[string]string, len(records))
	for _, r := range records {
		if r.Date == "" {
			continue
		}
		if _, seen := byDate[r.Date]; seen {
			continue
		}
		status := r.Status
		if status == "" {
			status = DefaultStatus
		}
		byDate[r.Date] = status
	}
	return byDate
}
