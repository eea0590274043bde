// item/service.go
package item

import (
	"context"
	"encoding/json"

	"github.com/eGGnogSC/qbfields/pkg/qbclient"
)

const activeItemsQuery = "SELECT * FROM Item WHERE Active = true MAXRESULTS 10"

// Service fetches item records from QuickBooks.
type Service struct {
	client *qbclient.Client
}

// NewService creates a new item service.
func NewService(client *qbclient.Client) *Service {
	return &Service{client: client}
}

// Fetch returns up to 10 active items as opaque provider records.
func (s *Service) Fetch(ctx context.Context, accessToken, realmID string) ([]json.RawMessage, error) {
	return s.client.Query(ctx, accessToken, realmID, activeItemsQuery, "Item")
}
