package discovery

import (
	"fmt"
	"time"
)

// searchWindow bounds every query to recent mail; older billing email rarely
// reflects a subscription that is still active.
const searchWindow = 6 * 30 * 24 * time.Hour

// searchQueries is the fixed, ordered set of Gmail search expressions the
// engine runs. Sender-scoped queries for popular services come first so
// their high-precision hits land ahead of the generic sweeps, which matters
// once the per-query result cap starts truncating.
var searchQueries = []string{
	"from:netflix.com (subscription OR payment OR billing)",
	"from:spotify.com (subscription OR payment OR receipt)",
	"from:apple.com (subscription OR receipt OR invoice)",
	"from:google.com (subscription OR payment OR storage)",
	"from:youtube.com (membership OR premium OR payment)",
	"from:hulu.com (subscription OR billing OR payment)",
	"from:disneyplus.com (subscription OR billing)",
	"from:hbomax.com OR from:max.com (subscription OR billing)",
	"from:amazon.com (prime OR subscription OR membership)",
	"from:audible.com (membership OR credit OR billing)",
	"from:adobe.com (subscription OR invoice OR payment)",
	"from:microsoft.com (subscription OR invoice OR renewal)",
	"from:dropbox.com (subscription OR upgrade OR billing)",
	"from:github.com (receipt OR billing OR payment)",
	"from:notion.so (invoice OR receipt OR billing)",
	"from:zoom.us (invoice OR subscription OR renewal)",
	"subject:(subscription confirmation)",
	"subject:(payment confirmation) (monthly OR yearly OR annual)",
	"subject:(your receipt) (subscription OR membership OR premium)",
	"subject:(invoice OR receipt) (monthly OR yearly OR annual)",
	"subject:(renewal OR auto-renew) (subscription OR membership)",
	"\"your subscription\" (renew OR billing OR payment)",
}

// windowedQuery appends Gmail's after: operator so a query only returns mail
// inside the search window.
func windowedQuery(query string, now time.Time) string {
	cutoff := now.Add(-searchWindow)
	return fmt.Sprintf("%s after:%s", query, cutoff.Format("2006/01/02"))
}
