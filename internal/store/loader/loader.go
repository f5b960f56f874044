// Package loader registers the built-in store drivers.
// Import for side effects:
//
//	import _ "github.com/openleague/openleague-go/internal/store/loader"
package loader

import (
	// Register store drivers
	_ "github.com/openleague/openleague-go/internal/store/memory"
	_ "github.com/openleague/openleague-go/internal/store/sqlite"
)
