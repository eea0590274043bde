// customer/service.go
package customer

import (
	"context"
	"encoding/json"

	"github.com/eGGnogSC/qbfields/pkg/qbclient"
)

const activeCustomersQuery = "SELECT * FROM Customer WHERE Active = true MAXRESULTS 10"

// Service fetches customer records from QuickBooks.
type Service struct {
	client *qbclient.Client
}

// NewService creates a new customer service.
func NewService(client *qbclient.Client) *Service {
	return &Service{client: client}
}

// Fetch returns up to 10 active customers as opaque provider records.
func (s *Service) Fetch(ctx context.Context, accessToken, realmID string) ([]json.RawMessage, error) {
	return s.client.Query(ctx, accessToken, realmID, activeCustomersQuery, "Customer")
}
