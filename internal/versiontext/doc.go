// Package versiontext reads, edits and writes VERSION.txt release histories.
//
// This package implements:
//   - VERSION.txt parsing into an ordered, newest-first list of releases
//   - Release lookup, prior-version lookup and insert-or-replace merging
//   - Round-trip stable serialization (parsing the output reproduces the model)
//   - Terminal and YAML views used by the show command
//
// A document is a sequence of blocks separated by blank lines:
//
//	jetty-9.4.1 - 20 January 2017
//	 + JETTY-101 Support HTTP Trailer
//	 + 612 Fix request log
//	   wrapped continuation of the previous issue
//
//	jetty-9.4.0
//	 + JETTY-100 Initial import
//
// Header lines start in column 0 and carry the version identifier and an
// optional release date. Indented "+" lines are issues.
package versiontext
