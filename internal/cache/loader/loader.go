// Package loader registers cache drivers via blank imports.
// Import this package to ensure the default cache drivers are available.
//
// Usage in main.go:
//
//	import _ "github.com/openleague/openleague-go/internal/cache/loader"
package loader

import (
	// Register the memory cache driver
	_ "github.com/openleague/openleague-go/internal/cache/memory"

	// Register the valkey cache driver
	_ "github.com/openleague/openleague-go/internal/cache/valkey"
)
