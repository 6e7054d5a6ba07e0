// Package sqlunit builds persistence-unit factories on top of database/sql
// pools published in a naming.Directory.
//
// Building a unit looks up its datasource and runs the unit's schema
// statements once. The resulting Factory hands out Sessions, and each
// Session holds one dedicated connection from the shared pool until closed.
//
// The pool itself belongs to whoever bound it (normally the bundle), so
// closing a Factory never closes the pool.
//
// Recognized unit properties:
//
//	session.acquireTimeout  duration  bound on waiting for a pooled connection (default: none)
//	schema.enabled          bool      run schema statements at build time (default: true)
package sqlunit
