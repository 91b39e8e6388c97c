package domain

// PreprintRecord is a core entity describing one preprint-to-publication
// link as reported by the publisher feed.
type PreprintRecord struct {
	PreprintDOI   string
	PublishedDOI  string
	Title         string
	Category      string
	Journal       string
	PreprintDate  string
	PublishedDate string
}

// Key identifies a record across feed pages; the feed may repeat entries
// when its total shifts between page requests.
func (r PreprintRecord) Key() string {
	return r.PreprintDOI + "\x00" + r.PublishedDOI
}

// Published reports whether the preprint has an associated published paper.
func (r PreprintRecord) Published() bool {
	return r.PublishedDOI != ""
}

// Target is the page an annotation attaches to.
type Target struct {
	URL   string
	DOI   string
	Title string
}

// Draft is a rendered annotation body with its tag set, ready to post.
type Draft struct {
	Body string
	Tags []string
}

// PostedAnnotation is an annotation that exists in the remote store.
// It is re-derived by searching the store on every run, never persisted.
type PostedAnnotation struct {
	ID     string
	URI    string
	Tags   []string
	Group  string
	Target Target
}

// Permissions describes who may read and administer a posted annotation.
// Built once per run and shared read-only across all posts.
type Permissions struct {
	Read   []string
	Update []string
	Delete []string
	Admin  []string
}

// RunStatus enumerates pipeline milestones for a single record.
type RunStatus string

const (
	StatusFetched RunStatus = "fetched"
	StatusDropped RunStatus = "dropped"
	StatusSkipped RunStatus = "skipped"
	StatusPosted  RunStatus = "posted"
	StatusFailed  RunStatus = "failed"
)
