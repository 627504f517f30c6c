// Package config manages user settings stored in config.yaml inside the qwk
// data directory: the agent command template and a few display and logging
// preferences. Every key can be overridden with a QWK_-prefixed environment
// variable (QWK_AGENT, QWK_PREVIEW_WIDTH, QWK_LOG_LEVEL).
package config
