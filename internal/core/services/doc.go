// Package services implements the driving port interfaces.
// AgentService runs the retrieval pipeline (ingest, batch ingest,
// grounded answering), ToolService dispatches the fixed tool catalogue,
// and SettingsService maps the config store onto typed settings.
//
// Services are pure Go with no CGO or external dependencies.
package services
