package observability

import (
	"github.com/fulmenhq/gofulmen/telemetry"
)

// TelemetrySystem receives request outcome counters. Nil disables emission.
var TelemetrySystem *telemetry.System

// InitTelemetry installs a global telemetry system. When disabled, a
// disabled system is still registered so gofulmen internals stay quiet.
func InitTelemetry(enabled bool) error {
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: enabled})
	if err != nil {
		return err
	}
	telemetry.SetGlobalSystem(sys)

	if enabled {
		TelemetrySystem = sys
	} else {
		TelemetrySystem = nil
	}
	return nil
}
