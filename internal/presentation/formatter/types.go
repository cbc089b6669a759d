package formatter

// ReportRow is one rendered line of the playtime report.
type ReportRow struct {
	Player   string
	Seconds  int64
	Duration string
	Online   bool
}
