package migrate

import (
	"fmt"

	"github.com/angelmondragon/stockroom-backend/pkg/config"
)

// rollbackCommands can drop schema or data. "version" is included because
// it migrates down when the target is older than the database.
var rollbackCommands = map[string]bool{
	"down":    true,
	"down-to": true,
	"redo":    true,
	"reset":   true,
	"version": true,
}

// GuardProduction refuses rollback commands against a production
// environment unless force is set.
func GuardProduction(app config.AppConfig, command string, force bool) error {
	if !app.IsProd() || force || !rollbackCommands[command] {
		return nil
	}
	return fmt.Errorf("refusing %q in %s without -force", command, app.Env)
}
