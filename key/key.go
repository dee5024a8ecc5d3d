// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 13

// Backend API - these keys govern communication with the segmentation and quiz service.
const (
	APIBaseURL = "api.base_url"
	APITimeout = "api.timeout"
)

// Gating Behavior - these keys tune the playback gate without changing its semantics.
const (
	GateRewatchDelay = "gate.rewatch_delay"
	GateSaveProgress = "gate.save_progress"
)

// Player Discovery - these keys configure how media elements are located and monitored.
const (
	LocatorWaitTimeout = "locator.wait_timeout"
	WatchdogInterval   = "watchdog.interval"
)

// Quiz Presentation - these keys define the UI/UX parameters of the quiz prompt flow.
const (
	QuizShowSummaries = "quiz.show_summaries"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern general application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
