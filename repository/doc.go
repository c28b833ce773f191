// Package repository provides a generic repository built on Bun for CRUD
// operations and for listing entities through compiled query criteria.
package repository
