package domain

// JournalAllowList selects records by the journal their paper appeared in.
// The bioRxiv feed can only be queried by publisher, and a publisher may
// own many journals, so filtering happens client-side.
type JournalAllowList map[string]struct{}

// NewJournalAllowList builds an allow-list from journal names.
func NewJournalAllowList(journals []string) JournalAllowList {
	allowed := make(JournalAllowList, len(journals))
	for _, j := range journals {
		allowed[j] = struct{}{}
	}
	return allowed
}

// Match reports whether the record's journal is allowed. Matching is
// case-sensitive and exact. Records without a published DOI never match,
// even if the upstream feed leaked one through.
func (a JournalAllowList) Match(rec PreprintRecord) bool {
	if !rec.Published() {
		return false
	}
	_, ok := a[rec.Journal]
	return ok
}

// Filter returns the subset of records that pass the allow-list.
func (a JournalAllowList) Filter(records []PreprintRecord) []PreprintRecord {
	var kept []PreprintRecord
	for _, rec := range records {
		if a.Match(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}
