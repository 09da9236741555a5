// Package zfuse serves a mock host filesystem over FUSE so the
// directory trees a simulated zfs scenario produced can be browsed
// with ordinary shell tools. The view is read-only: mutation belongs
// to the engine, not to a FUSE client.
package zfuse
