package cmd

import (
	"net/url"
	"testing"

	"github.com/ecofinance/finagent/internal/config"
)

// The mock service must listen where the client looks by default, or a
// bare `finagent mock-fi` + `finagent serve` pair will not connect.
func TestDefaultMockFiAddrMatchesClientDefault(t *testing.T) {
	u, err := url.Parse(config.DefaultFiMCPEndpoint)
	if err != nil {
		t.Fatalf("parsing default endpoint: %v", err)
	}
	if u.Host != defaultMockFiAddr {
		t.Errorf("defaultMockFiAddr = %q, config endpoint host = %q", defaultMockFiAddr, u.Host)
	}
}
