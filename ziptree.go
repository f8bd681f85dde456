// Package ziptree packs a directory tree into a zip archive and unpacks archives back onto the filesystem.
//
// Packing walks the source root breadth-first, filters each entry, and streams file contents through a fixed-size
// buffer into the archive. Unpacking verifies that no entry would escape the destination directory before extracting
// anything, then extracts the entries accepted by a Filter.
//
// Every operation either succeeds entirely or returns an *Error; there is no partial-success result and nothing is
// cleaned up on failure.
package ziptree
