// Package launcher runs the agent process for a resolved alias. The child
// shares the caller's terminal, receives forwarded termination signals and
// its exit status is reported back unchanged.
package launcher
