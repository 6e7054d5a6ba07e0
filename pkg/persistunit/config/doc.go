/*
Package config describes the persistence section of a server configuration
file: the datasources the bundle binds at startup and the persistence units
built on top of them.

# File Format

	dataSources:
	  - jndiName: java:/jdbc/orders
	    database:
	      driver: sqlite
	      url: file:orders.db
	      maxOpenConns: 8
	      connMaxLifetime: 30m
	      validationQuery: SELECT 1

	units:
	  - name: orders-db
	    dataSource: java:/jdbc/orders
	    schema:
	      - CREATE TABLE IF NOT EXISTS orders (id INTEGER PRIMARY KEY, total REAL)
	    properties:
	      session.acquireTimeout: 5s

Load with FromFile, FromYAML, or FromJSON. Every loader validates the
result; Validate can also be called directly on a Config built in code.

# Properties

Unit properties are free-form. Props wraps them with typed accessors that
return a default when the key is missing or has the wrong type:

	props := unit.Props()
	timeout := props.Duration("session.acquireTimeout", 10*time.Second)

Duration accessors accept "30s" style strings or numbers of seconds.
*/
package config
