// Package migrations holds darzi's schema migrations. Each file registers
// itself with pkg/migration from init(); importing this package is enough to
// make them available to `darzi migrate`.
package migrations
