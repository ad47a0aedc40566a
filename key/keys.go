// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// HTTP Surface - these keys configure the API and proxy listener.
const (
	ServerAddress      = "server.address"
	ServerPublicURL    = "server.public_url"
	ServerReadTimeout  = "server.read_timeout"
	ServerWriteTimeout = "server.write_timeout"
)

// Resolution Pipeline - these keys govern strategy order, per-attempt bounds and result caching.
const (
	ResolveStrategies    = "resolve.strategies"
	ResolveTimeout       = "resolve.timeout"
	ResolveCacheLifetime = "resolve.cache_lifetime"
	ResolveFailLifetime  = "resolve.fail_lifetime"
	ResolveScripts       = "resolve.scripts"
)

// Outbound Fetching - these keys tune plain GET requests and the shared retry policy.
const (
	FetchTimeout        = "fetch.timeout"
	FetchImpersonate    = "fetch.impersonate"
	FetchRetries        = "fetch.retries"
	FetchBackoffInitial = "fetch.backoff_initial"
	FetchBackoffMax     = "fetch.backoff_max"
)

// Rendering API - these keys configure the third-party JavaScript rendering proxy.
const (
	RenderEndpoint = "render.endpoint"
	RenderAPIKey   = "render.api_key"
	RenderWait     = "render.wait"
)

// Browser Automation - these keys select and bound the headless browser backend.
const (
	BrowserBackend     = "browser.backend"
	BrowserBin         = "browser.bin"
	BrowserHeadless    = "browser.headless"
	BrowserAttempts    = "browser.attempts"
	BrowserSettle      = "browser.settle"
	BrowserIframeWait  = "browser.iframe_wait"
	BrowserPlayWait    = "browser.play_wait"
	BrowserCaptureWait = "browser.capture_wait"
	BrowserControlURL  = "browser.control_url"
)

// Remote Browser Credentials - these keys locate a hosted browser reached over a credentialed protocol.
const (
	BrowserRemoteHost     = "browser.remote.host"
	BrowserRemotePort     = "browser.remote.port"
	BrowserRemoteUsername = "browser.remote.username"
	BrowserRemotePassword = "browser.remote.password"
)

// Batch Resolution - these keys throttle store-wide resolution runs.
const (
	BatchDelay = "batch.delay"
	BatchForce = "batch.force"
)

// Content Store - these keys locate the JSON documents batch runs update.
const (
	StoreFiles = "store.files"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern terminal output.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
	CliOpenWith     = "cli.open_with"
	IconsVariant    = "icons.variant"
)
