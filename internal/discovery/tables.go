package discovery

import (
	"regexp"
	"strings"

	"github.com/TysunM/subzero/internal/model"
)

// gateKeywords is the keyword gate: a message must contain at least one of
// these (in subject, sender, or body) to be considered at all.
var gateKeywords = []string{
	"subscription",
	"billing",
	"payment",
	"invoice",
	"receipt",
	"renewal",
	"auto-renew",
	"recurring",
	"monthly",
	"yearly",
	"premium",
	"plan",
	"membership",
	"account charged",
}

// serviceEntry maps a lowercase keyword to the service's display name.
type serviceEntry struct {
	keyword string
	name    string
}

// knownServices is an ordered association list; the first keyword found in
// the message text wins. Substring matching trades precision for recall: a
// sender domain that merely embeds a keyword will match. Order matters where
// keywords overlap ("apple music" before any bare "apple" entry would).
var knownServices = []serviceEntry{
	{"netflix", "Netflix"},
	{"spotify", "Spotify Premium"},
	{"apple music", "Apple Music"},
	{"youtube", "YouTube Premium"},
	{"hulu", "Hulu"},
	{"disney", "Disney+"},
	{"hbo", "HBO Max"},
	{"paramount", "Paramount+"},
	{"peacock", "Peacock"},
	{"crunchyroll", "Crunchyroll"},
	{"amazon prime", "Amazon Prime"},
	{"audible", "Audible"},
	{"kindle", "Kindle Unlimited"},
	{"adobe", "Adobe Creative Cloud"},
	{"microsoft", "Microsoft 365"},
	{"office 365", "Microsoft 365"},
	{"dropbox", "Dropbox"},
	{"icloud", "iCloud+"},
	{"google one", "Google One"},
	{"onedrive", "OneDrive"},
	{"notion", "Notion"},
	{"slack", "Slack"},
	{"zoom", "Zoom"},
	{"evernote", "Evernote"},
	{"canva", "Canva"},
	{"figma", "Figma"},
	{"grammarly", "Grammarly"},
	{"github", "GitHub"},
	{"gitlab", "GitLab"},
	{"jetbrains", "JetBrains"},
	{"digitalocean", "DigitalOcean"},
	{"heroku", "Heroku"},
	{"nordvpn", "NordVPN"},
	{"expressvpn", "ExpressVPN"},
	{"new york times", "The New York Times"},
	{"nytimes", "The New York Times"},
	{"economist", "The Economist"},
	{"medium", "Medium"},
	{"substack", "Substack"},
	{"patreon", "Patreon"},
	{"twitch", "Twitch"},
}

// categoryEntry maps a category to the keywords that select it.
type categoryEntry struct {
	category string
	keywords []string
}

// categories is matched against the lowercased resolved service name; the
// first category with a matching keyword wins, CategoryOther is the default.
var categories = []categoryEntry{
	{model.CategoryEntertainment, []string{
		"netflix", "hulu", "disney", "hbo", "paramount", "peacock",
		"crunchyroll", "twitch", "patreon", "audible", "kindle", "youtube",
	}},
	{model.CategoryMusic, []string{
		"spotify", "apple music", "tidal", "pandora", "deezer",
	}},
	{model.CategorySoftware, []string{
		"adobe", "microsoft", "office", "canva", "figma", "grammarly", "vpn",
	}},
	{model.CategoryCloudStorage, []string{
		"dropbox", "icloud", "google one", "onedrive", "box",
	}},
	{model.CategoryProductivity, []string{
		"notion", "slack", "zoom", "evernote", "todoist", "asana",
	}},
	{model.CategoryDevelopment, []string{
		"github", "gitlab", "jetbrains", "digitalocean", "heroku", "vercel",
	}},
	{model.CategoryShopping, []string{
		"amazon", "ebay", "etsy", "walmart", "instacart",
	}},
	{model.CategoryNews, []string{
		"times", "economist", "medium", "substack", "journal", "post", "news",
	}},
}

// genericDomains are mail providers whose domain never identifies a merchant.
var genericDomains = map[string]bool{
	"gmail":   true,
	"yahoo":   true,
	"outlook": true,
	"hotmail": true,
	"mail":    true,
}

// amountPatterns are tried in order; the first capture that parses to a value
// in (0, 10000) wins.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*(\d{1,4}(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)(\d{1,4}(?:\.\d{1,2})?)\s*(?:usd|dollars?)\b`),
	regexp.MustCompile(`(?i)(?:total|amount|charged|billed)[:\s]+\$?(\d{1,4}(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)\$?(\d{1,4}(?:\.\d{1,2})?)\s*(?:/|per\s+)(?:month|mo|year|yr)\b`),
}

// frequencyPatterns are checked in priority order: yearly, monthly, weekly,
// quarterly. When none match the frequency defaults to monthly.
var frequencyPatterns = []struct {
	re        *regexp.Regexp
	frequency model.Frequency
}{
	{regexp.MustCompile(`(?i)(?:\b(?:yearly|annually|annual)\b|per\s+year|/\s*yr\b|/\s*year\b)`), model.FrequencyYearly},
	{regexp.MustCompile(`(?i)(?:\bmonthly\b|per\s+month|/\s*mo\b|/\s*month\b)`), model.FrequencyMonthly},
	{regexp.MustCompile(`(?i)(?:\bweekly\b|per\s+week|/\s*wk\b|/\s*week\b)`), model.FrequencyWeekly},
	{regexp.MustCompile(`(?i)(?:\bquarterly\b|per\s+quarter|every\s+3\s+months)`), model.FrequencyQuarterly},
}

// dateToken matches the date formats that billing emails actually use:
// "June 1, 2024", "Jun 1 2024", "06/01/2024", and "2024-06-01".
const dateToken = `((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-zA-Z]*\.?\s+\d{1,2},?\s+\d{4}|\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2})`

// billingDatePatterns are tried in priority order over the body; the first
// captured date that parses and lies strictly in the future wins.
var billingDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)next\s+billing(?:\s+date)?[:\s]*(?:is\s+|on\s+)?` + dateToken),
	regexp.MustCompile(`(?i)renew(?:s|al|ed)?(?:\s+date)?[:\s]*(?:is\s+|on\s+)?` + dateToken),
	regexp.MustCompile(`(?i)(?:due|expires?)(?:\s+(?:on|date))?[:\s]*` + dateToken),
	regexp.MustCompile(dateToken),
}

// dateLayouts are the parse layouts corresponding to dateToken.
var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"2006-01-02",
}

// LookupService returns the display name of the first known service whose
// keyword appears in the given lowercase text.
func LookupService(text string) (string, bool) {
	for _, entry := range knownServices {
		if strings.Contains(text, entry.keyword) {
			return entry.name, true
		}
	}
	return "", false
}

// CategoryFor maps a service name to its category. The name is matched
// lowercased against the category keyword lists in definition order.
func CategoryFor(service string) string {
	lower := strings.ToLower(service)
	for _, entry := range categories {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return model.CategoryOther
}
