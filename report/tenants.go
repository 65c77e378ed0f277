package report

import (
	"time"

	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/pkg/validation"
)

// Contract states.
const (
	ContractFuture  = "future"
	ContractActive  = "active"
	ContractExpired = "expired"
)

// ContractStatus classifies a tenant's contract on the day of now. A contract
// without an end date stays active once it has started.
func ContractStatus(t client.Tenant, now time.Time) string {
	today := dateOf(now)
	if start, err := time.Parse(validation.DateLayout, t.ContractStart); err == nil && today.Before(start) {
		return ContractFuture
	}
	if t.ContractEnd != nil && *t.ContractEnd != "" {
		if end, err := time.Parse(validation.DateLayout, *t.ContractEnd); err == nil && today.After(end) {
			return ContractExpired
		}
	}
	return ContractActive
}

// Contracts groups tenants by contract state.
type Contracts struct {
	Active  []client.Tenant
	Expired []client.Tenant
	Future  []client.Tenant
}

func SplitContracts(tenants []client.Tenant, now time.Time) Contracts {
	var c Contracts
	for _, t := range tenants {
		switch ContractStatus(t, now) {
		case ContractActive:
			c.Active = append(c.Active, t)
		case ContractExpired:
			c.Expired = append(c.Expired, t)
		default:
			c.Future = append(c.Future, t)
		}
	}
	return c
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
