package website

// Subpaths checked in addition to the homepage for emails and signals.
var extraPaths = []string{"/contact", "/contact-us", "/about", "/about-us"}

type techSignal struct {
	Product  string
	Patterns []string
}

// techSignals maps products to the substrings that betray them in raw page
// markup. Order is fixed so detected stacks are stable.
var techSignals = []techSignal{
	// Productivity / cloud
	{"Microsoft 365", []string{"microsoft365", "office365", "outlook.com", "microsoftonline"}},
	{"Google Workspace", []string{"workspace.google", "gsuite", "google workspace"}},
	{"Microsoft Teams", []string{"teams.microsoft", "microsoft.com/teams"}},
	{"Slack", []string{"slack.com", "slack-edge"}},
	{"Zoom", []string{"zoom.us"}},
	// CMS
	{"WordPress", []string{"wp-content", "wp-includes", "wordpress"}},
	{"Shopify", []string{"shopify", "myshopify.com"}},
	{"Wix", []string{"wix.com", "wixsite", "wixpress"}},
	{"Squarespace", []string{"squarespace.com", "sqsp.net"}},
	// CRM / marketing
	{"HubSpot", []string{"hubspot.com", "hs-scripts", "hs-analytics"}},
	{"Salesforce", []string{"salesforce.com", "force.com"}},
	{"Zoho", []string{"zoho.com", "zohocdn"}},
	// RMM / PSA / backup: presence implies an existing managed-services relationship
	{"ConnectWise", []string{"connectwise.com", "screenconnect", "connectwise"}},
	{"Datto", []string{"datto.com", "datto"}},
	{"Kaseya", []string{"kaseya.com", "kaseya"}},
	// Security / network
	{"SonicWall", []string{"sonicwall.com", "sonicwall"}},
	{"Fortinet", []string{"fortinet.com", "fortigate", "fortinet"}},
	{"Meraki", []string{"meraki.com", "meraki"}},
	{"Cloudflare", []string{"cloudflare"}},
	// VoIP / comms
	{"RingCentral", []string{"ringcentral.com", "ringcentral"}},
	{"Vonage", []string{"vonage.com", "nexmo"}},
	// Cloud hosting
	{"AWS", []string{"amazonaws.com", "cloudfront.net"}},
	{"Azure", []string{"azure.com", "azurewebsites.net", "msecnd.net"}},
	{"Google Cloud", []string{"googleapis.com", "cloud.google"}},
	// Payments / POS
	{"Square", []string{"squareup.com", "square.com"}},
	{"Toast", []string{"toasttab.com", "toast"}},
	// Industry-specific
	{"QuickBooks", []string{"quickbooks.com", "intuit.com/quickbooks"}},
	{"Mindbody", []string{"mindbodyonline.com", "mindbody"}},
	{"Athenahealth", []string{"athenahealth.com", "athena"}},
	{"Practice Fusion", []string{"practicefusion.com"}},
	{"Dentrix", []string{"dentrix.com", "dentrix"}},
	{"Epic", []string{"epic.com", "mychart"}},
}

// mspToolProducts are the remote-management products whose detection sets
// the existing-MSP flag.
var mspToolProducts = map[string]bool{
	"ConnectWise": true,
	"Datto":       true,
	"Kaseya":      true,
}

// itKeywords suggest in-house IT staff.
var itKeywords = []string{
	"it department", "it director", "it manager", "sys admin",
	"sysadmin", "chief technology officer", "cto", "it staff",
}

// complianceKeywords are regulatory terms worth surfacing.
var complianceKeywords = []string{
	"hipaa", "pci", "pci-dss", "compliance", "phi ",
	"protected health", "ferpa", "sox compliance", "gdpr",
}

// emailDenylist filters placeholder and infrastructure addresses out of the
// merged email set.
var emailDenylist = []string{
	"example", "domain", "youremail", "sentry", "wixpress", "schema",
	"placeholder", "test@", "noreply", "no-reply",
}

const (
	maxEmails             = 5
	maxComplianceMentions = 3
)
