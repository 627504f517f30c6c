// Package userdata locates the per-user data directory (~/.config/qwk by
// default) that holds the alias store, the agent configuration, reset
// backups and the first-run marker. It also implements the --doctor health
// check.
package userdata
