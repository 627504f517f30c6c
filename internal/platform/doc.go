// Package platform provides the filesystem primitives the stores build on:
// atomic replacement of a file, exclusive copies for backups, and permission
// management. Permission calls are no-ops on Windows, which has no Unix
// permission bits.
package platform
