package timescaledb

import (
	"context"

	"github.com/chrissnell/precipmeter/internal/database"
	"github.com/chrissnell/precipmeter/internal/storage"
)

// CheckHealth pings the database and runs a trivial query
func (t *Storage) CheckHealth(ctx context.Context) *storage.Health {
	if err := database.Ping(ctx, t.TimescaleDBConn); err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "TimescaleDB unreachable", err)
	}
	return storage.CreateHealthData(storage.StatusHealthy, "TimescaleDB operational - ping: OK, query test: OK", nil)
}
