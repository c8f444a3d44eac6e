// Package register registers all components
package register

import (
	// register components.
	_ "github.com/m5audio/micgen/components/i2saudio"
	_ "github.com/m5audio/micgen/components/i2saudio/i2smic"
)
