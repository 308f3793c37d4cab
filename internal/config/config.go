package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Saturdays/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Go Saturdays"
	AppBinary      = "go-saturdays"
	AppID          = "com.github.tartampluch.go-saturdays"
	KeyringService = "com.github.tartampluch.go-saturdays"
	KeyringAccount = "api-token"
	LogFileName    = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// FilePermData is used for the backend collection file.
	FilePermData fs.FileMode = 0644

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands & Flags
// -----------------------------------------------------------------------------

const (
	CmdGUI        = "gui"
	CmdServe      = "serve"
	CmdShow       = "show"
	CmdSet        = "set"
	CmdExport     = "export"
	CmdHashToken  = "hash-token"
	CmdToken      = "token"
	CmdTokenSet   = "set"
	CmdTokenClear = "clear"
	CmdVersion    = "version"

	CmdDescRoot       = "Plan the alternating working Saturdays of the next twelve months"
	CmdDescGUI        = "Open the desktop scheduler (default)"
	CmdDescServe      = "Run the backend API and the calendar feed"
	CmdDescShow       = "Print the rolling window as stored by the backend"
	CmdDescSet        = "Toggle one Saturday, then save the collection"
	CmdDescExport     = "Write the working Saturdays as an iCalendar file"
	CmdDescHashToken  = "Hash an API token for SATURDAYS_TOKEN_HASH (Argon2id)"
	CmdDescToken      = "Manage the API token stored in the system keyring"
	CmdDescTokenSet   = "Prompt for the API token and store it"
	CmdDescTokenClear = "Remove the stored API token"
	CmdDescVersion    = "Print version information"

	FlagDebug     = "debug"
	FlagMonth     = "month"
	FlagYear      = "year"
	FlagOrdinal   = "ordinal"
	FlagUnchecked = "unchecked"
	FlagOut       = "out"
	FlagUnmask    = "insecure-unmask"

	FlagDescDebug     = "Enable debug logging with source locations"
	FlagDescMonth     = "Month (1-12) of the Saturday to toggle"
	FlagDescYear      = "Four-digit year of the Saturday to toggle"
	FlagDescOrdinal   = "Ordinal (1-5) of the Saturday within the month"
	FlagDescUnchecked = "Uncheck the Saturday instead of checking it"
	FlagDescOut       = "Write the calendar to this file instead of stdout"
	FlagDescUnmask    = "Show the token as plain text while typing (INSECURE!)"

	MsgVersionOutput = "%s version %s (commit %s, built %s) %s/%s\n"

	PromptToken      = "Enter token:   "
	PromptConfirm    = "Confirm token: "
	MsgUnmaskWarning = "WARNING: the token will be visible on screen!\n"
	MsgHashOutput    = "SATURDAYS_TOKEN_HASH=%s\n"
	MsgSetOutput     = "%s: working Saturdays %v\n"
	MarkWorking      = "[x]"
	MarkIdle         = "[ ]"
)

// -----------------------------------------------------------------------------
// Domain Constants
// -----------------------------------------------------------------------------

const (
	// WindowLength is the number of months in the rolling window.
	WindowLength = 12

	// MaxOrdinal is the highest Saturday ordinal a month can have.
	MaxOrdinal = 5

	MinYear = 1000
	MaxYear = 9999

	MonthLabelFormat   = "%s %d"
	SaturdayDateFormat = "02 Jan"
)

// -----------------------------------------------------------------------------
// UI Constants & Preferences
// -----------------------------------------------------------------------------

const (
	SchedulerWinWidth  = 720
	SchedulerWinHeight = 640
	SettingsWinWidth   = 480

	PrefAPIURL   = "api_url"
	PrefLanguage = "language"
	PrefLastRun  = "last_run_version"

	LayoutColumnsDouble = 2
	PlaceholderURL      = "https://..."
	DefaultLanguage     = "en"

	// CheckLabelFormat renders "1st (02 Nov)".
	CheckLabelFormat = "%s (%s)"

	ExtICS         = ".ics"
	ExportFileName = "working-saturdays.ics"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle      = "win_title"
	TKeyWinSettings   = "win_settings_title"
	TKeyLblIntro      = "lbl_intro"
	TKeyBtnRefresh    = "btn_refresh"
	TKeyBtnSave       = "btn_save"
	TKeyBtnSettings   = "btn_settings"
	TKeyBtnExport     = "btn_export"
	TKeyMsgExported   = "msg_exported"
	TKeyBtnCancel     = "btn_cancel"
	TKeyLblLoading    = "lbl_loading"
	TKeyLblSaving     = "lbl_saving"
	TKeyLblLanguage   = "lbl_language"
	TKeyLblURL        = "lbl_url"
	TKeyHelpURL       = "help_api_url"
	TKeyLblToken      = "lbl_token"
	TKeyHelpToken     = "help_token"
	TKeyLblFooter     = "lbl_footer"
	TKeyMsgLoadFailed = "msg_load_failed"
	TKeyMsgSaved      = "msg_saved"
	TKeyMsgSaveFailed = "msg_save_failed"
	TKeyErrURLReq     = "err_url_required"
	TKeyErrURLScheme  = "err_url_scheme"
	TKeyEvtSummary    = "evt_summary"

	// TKeyMonthPrefix is suffixed with the month number (1-12).
	TKeyMonthPrefix = "month_"
)

// -----------------------------------------------------------------------------
// iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go Saturdays//Engine//EN"
	ICalCalName = "Working Saturdays"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "gosaturdays"

	PropUID        = "UID"
	PropSummary    = "SUMMARY"
	PropDTStart    = "DTSTART"
	PropDTStamp    = "DTSTAMP"
	PropRefresh    = "REFRESH-INTERVAL"
	PropVersion    = "VERSION"
	PropProdid     = "PRODID"
	PropXWRCalName = "X-WR-CALNAME"
	PropCalScale   = "CALSCALE"
	PropMethod     = "METHOD"
	PropTransp     = "TRANSP"

	ICalTranspOpaque   = "OPAQUE"
	DefaultICalRefresh = 12 * time.Hour
	DefaultSummary     = "Working Saturday (%s)"
	FormatUID          = "%04d-%02d-%d@%s"

	// StubVCalendar is the minimal valid iCalendar object used when no Saturday is working.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Network, Routes & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 4 * 1024 * 1024 // 4MB
	MaxRequestBodySize  = 1 * 1024 * 1024 // 1MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"

	RouteSaturdays = "/alternate-saturdays"
	RouteFeed      = "/alternate-saturdays.ics"
	RouteHealth    = "/healthz"
	RouteMetrics   = "/metrics"

	// JSONKeySaturdays is the envelope key used by both request and response bodies.
	JSONKeySaturdays = "alternateSaturdays"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAuthorization   = "Authorization"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderRequestID       = "X-Request-ID"

	BearerPrefix = "Bearer "
	BearerRealm  = `Bearer realm="go-saturdays"`

	MimeJSON            = "application/json"
	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// API Error Codes
// -----------------------------------------------------------------------------

const (
	CodeInvalidJSON  = "SATURDAYS_INVALID_JSON"
	CodeValidation   = "SATURDAYS_VALIDATION_FAILED"
	CodeUnauthorized = "SATURDAYS_UNAUTHORIZED"
	CodeInternal     = "SATURDAYS_INTERNAL"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrAddrRequired     = "listen address is required"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrRequestBuild     = "failed to create request"
	ErrNetwork          = "network error"
	ErrDecodeResponse   = "failed to decode response body"
	ErrEncodeRequest    = "failed to encode request body"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrSettingsParse    = "failed to parse settings"
	ErrEnvFile          = "failed to load env file"
	ErrStoreRead        = "failed to read collection file"
	ErrStoreDecode      = "failed to decode collection file"
	ErrStoreWrite       = "failed to write collection file"
	ErrTokenHash        = "failed to hash token"
	ErrTokenFormat      = "invalid token hash format"
	ErrTokenEmpty       = "token cannot be empty"
	ErrTokenMismatch    = "tokens do not match"
	ErrKeyringWrite     = "failed to store token in keyring"
	ErrKeyringDelete    = "failed to delete token from keyring"
	ErrOutputFile       = "failed to write output file"
	ErrMonthRange       = "month must be between 1 and 12"
	ErrYearRange        = "year must have four digits"
	ErrOrdinalRange     = "ordinal exceeds the number of Saturdays in the month"
	ErrDuplicateMonth   = "duplicate month/year in collection"
	ErrValidationFailed = "validation failed"
	ErrRecordsRequired  = "alternateSaturdays is required"
	ErrFeedBuild        = "failed to rebuild calendar feed"
	ErrReadInput        = "failed to read input"
)

// -----------------------------------------------------------------------------
// User-facing Messages & HTTP Responses
// -----------------------------------------------------------------------------

const (
	MsgLoadFailedGeneric = "Failed to load alternate Saturdays."
	MsgSaveFailedGeneric = "Failed to save alternate Saturdays."
	MsgSaved             = "Alternate Saturdays saved."

	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInvalidJSON  = "invalid json"
	HTTPMsgUnauthorized = "unauthorized"
	HTTPMsgInternalErr  = "internal error"
	HTTPMsgOK           = "ok"
	HTTPMsgSaved        = "Alternate Saturdays saved."
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped gracefully"
	MsgCtxCancel      = "Context cancelled, shutting down UI"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Calendar cache updated"
	MsgLoadStarted    = "Loading alternate Saturdays"
	MsgLoadDone       = "Alternate Saturdays loaded"
	MsgLoadFailed     = "Loading alternate Saturdays failed"
	MsgLoadStale      = "Discarding superseded load response"
	MsgSaveStarted    = "Saving alternate Saturdays"
	MsgSaveDone       = "Alternate Saturdays saved"
	MsgSaveFailed     = "Saving alternate Saturdays failed"
	MsgReconcile      = "Reconciling with backend after save"
	MsgBusy           = "Operation already in progress"
	MsgToggle         = "Saturday toggled"
	MsgServerError    = "Server returned error status"
	MsgCollectionRead = "Collection loaded from disk"
	MsgCollectionSave = "Collection replaced"
	MsgBackupFailed   = "Failed to create backup"
	MsgAuthDisabled   = "No token hash configured: API is UNPROTECTED (development only)"
	MsgAuthEnabled    = "Bearer authentication enabled"
	MsgAuthFailed     = "Failed authentication attempt"
	MsgAuthVerifyErr  = "Error verifying token"
	MsgRequest        = "Request handled"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgTokenMissing   = "Token retrieval failed (might be empty)"
	MsgTokenStored    = "Token stored in keyring"
	MsgTokenCleared   = "Token removed from keyring"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgSettingsSaved  = "Settings saved"
	MsgOpenWindow     = "Opening window"
	MsgWindowRolled   = "Month changed, rebuilding the rolling window"
	MsgExported       = "Calendar exported"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyMethod    = "method"
	LogKeyRoute     = "route"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyAddr      = "addr"
	LogKeyCount     = "count"
	LogKeyMonth     = "month"
	LogKeyYear      = "year"
	LogKeyOrdinal   = "ordinal"
	LogKeyChecked   = "checked"
	LogKeyWorking   = "working_saturdays"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyRequestID = "request_id"
	LogKeyRemote    = "remote_addr"
	LogKeyDuration  = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI      = "ui"
	CompUISet   = "ui_settings"
	CompEngine  = "engine"
	CompClient  = "client"
	CompSession = "session"
	CompStore   = "store"
	CompAPI     = "api"
	CompAuth    = "auth"
	CompServer  = "server"
	CompMain    = "main"
	CompI18n    = "i18n"
)
