package gateway

// Drive is a named root of a folder tree within the remote site.
type Drive struct {
	ID   string
	Name string
}

// RemoteItem is one entry returned by ListChildren during the tree walk.
// DownloadURL, Size, and QuickXorHash may be blank here — the batch
// resolution step (BatchResolve) is the authority for those.
type RemoteItem struct {
	ID             string
	Name           string
	IsFolder       bool
	WebURL         string
	CreatedDate    string // YYYY-MM-DD
	Size           int64
	QuickXorHash   string
	DownloadURL    string
}

// ResolveOutcome is one entry of a BatchResolve response: a resolved
// download target, with OK set. An item missing from the batch response, or
// answered with a non-200 sub-status, has no entry in the outcome map at
// all (a lookup yields the zero value, OK=false); the caller treats that as
// "skip for this pass".
type ResolveOutcome struct {
	DownloadURL  string
	Size         int64
	QuickXorHash string
	OK           bool
}
