// Package database provides connection management, migrations of the
// registered models, configuration types, logging and SQL error
// classification built on top of Bun.
package database
