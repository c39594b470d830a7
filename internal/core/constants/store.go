package constants

// Userdata file names, resolved against the configured data directory
const (
	FileShops       = "Shops.json"
	FileConfig      = "Config.json"
	FileMessengers  = "Messengers.json"
	FileProductURLs = "ProductsURLs.txt"
	FileProxies     = "Proxies.txt"
	FileUserAgents  = "UserAgents.txt"
)

// Document store table names
const (
	TableShops      = "Shops"
	TableConfig     = "Config"
	TableMessengers = "Discord"
)

// Config store entry names
const (
	ConfigNameLogger        = "logger"
	ConfigNameScraperCommon = "scraperCommon"
	ConfigNameScraperByURL  = "scraperByUrl"
)

// Messenger config entry names and lookup values
const (
	MessengerConfigProduct = "product-msg-config"
	MessengerConfigLog     = "log-msg-config"
	MessengerConfigError   = "error-msg-config"

	// apiType value of the record carrying the webhook endpoint
	APITypeWebhook = "webhook"
)
