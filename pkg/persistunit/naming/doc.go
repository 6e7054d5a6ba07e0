// Package naming provides a thread-safe directory that publishes named
// objects, such as database connection pools, for lookup elsewhere in the
// process.
//
// # Basic Usage
//
// Bind objects under a name and look them up later:
//
//	dir := naming.NewDirectory()
//	if err := dir.Bind("java:/jdbc/orders", db); err != nil {
//	    return err // name already bound
//	}
//
//	db, err := naming.LookupAs[*sql.DB](dir, "java:/jdbc/orders")
//
// Bind refuses to replace an existing binding. Use Rebind to replace one
// explicitly.
//
// # Thread Safety
//
// All Directory methods are safe for concurrent use. Range iterates over a
// snapshot, so it is safe to Bind or Unbind from inside the callback.
package naming
