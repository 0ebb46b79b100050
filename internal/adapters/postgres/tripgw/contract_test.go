package tripgw

import (
	"context"
	"testing"

	"github.com/Thepalm86/tripweaver/internal/adapters/contracttest"
	"github.com/Thepalm86/tripweaver/internal/adapters/postgres/testutil"
	tripgwport "github.com/Thepalm86/tripweaver/internal/ports/out/tripgw"
)

func TestContract_PostgresTripGateway(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunTripGateway(t, func(t *testing.T) (tripgwport.Gateway, func()) {
		t.Helper()
		gw := NewGateway(pool)
		return gw, func() {
			_, _ = pool.Exec(context.Background(), `TRUNCATE trips CASCADE`)
		}
	})
}
