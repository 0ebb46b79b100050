package tripgw_test

import (
	"testing"

	"github.com/Thepalm86/tripweaver/internal/adapters/contracttest"
	memtripgw "github.com/Thepalm86/tripweaver/internal/adapters/memory/tripgw"
	tripgwport "github.com/Thepalm86/tripweaver/internal/ports/out/tripgw"
)

func TestGateway_Contract(t *testing.T) {
	t.Parallel()
	contracttest.RunTripGateway(t, func(t *testing.T) (tripgwport.Gateway, contracttest.CleanupFunc) {
		return memtripgw.NewGateway(), nil
	})
}
