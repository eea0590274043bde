// invoice/service.go
package invoice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/eGGnogSC/qbfields/pkg/qbclient"
)

// CreateParams carries the form inputs for a single-line invoice.
type CreateParams struct {
	Amount           string
	CustomerID       string
	ItemID           string
	ItemName         string
	CustomFieldID    string
	CustomFieldValue string
}

// Ref points at a created invoice: its provider ID and a deep link that
// opens it in the QuickBooks web UI.
type Ref struct {
	ID       string
	DeepLink string
}

// ValidationError lists required fields that were missing. It is returned
// before any network call is made.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// ErrInvalidAmount is returned when the amount is not a number.
var ErrInvalidAmount = errors.New("amount must be a number")

// ErrAmbiguousResponse marks a 200 invoice response without an Invoice.Id.
// The invoice may well exist; callers should warn, not fail hard.
var ErrAmbiguousResponse = errors.New("invoice response did not contain an invoice id")

// Service creates invoices referencing a customer, an item and one custom
// field value.
type Service struct {
	client       *qbclient.Client
	deepLinkBase string
	logger       *zap.Logger
}

// NewService creates a new invoice service.
func NewService(client *qbclient.Client, deepLinkBase string, logger *zap.Logger) *Service {
	return &Service{client: client, deepLinkBase: deepLinkBase, logger: logger}
}

type lineDetail struct {
	ItemRef struct {
		Value string `json:"value"`
		Name  string `json:"name"`
	} `json:"ItemRef"`
}

type invoiceLine struct {
	Amount     float64    `json:"Amount"`
	DetailType string     `json:"DetailType"`
	Detail     lineDetail `json:"SalesItemLineDetail"`
}

type customFieldValue struct {
	DefinitionID string `json:"DefinitionId"`
	Type         string `json:"Type"`
	StringValue  string `json:"StringValue"`
}

type invoiceBody struct {
	Line        []invoiceLine `json:"Line"`
	CustomerRef struct {
		Value string `json:"value"`
	} `json:"CustomerRef"`
	CustomField []customFieldValue `json:"CustomField"`
}

// Create validates the inputs, posts the invoice, and derives the deep link.
// All of token, realm, custom field, customer and item must be present or
// the call fails with a ValidationError before touching the network.
func (s *Service) Create(ctx context.Context, accessToken, realmID string, p CreateParams) (*Ref, error) {
	var missing []string
	if accessToken == "" {
		missing = append(missing, "token")
	}
	if realmID == "" {
		missing = append(missing, "realm")
	}
	if p.CustomFieldID == "" {
		missing = append(missing, "custom field")
	}
	if p.CustomerID == "" {
		missing = append(missing, "customer")
	}
	if p.ItemID == "" {
		missing = append(missing, "item")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	amount, err := strconv.ParseFloat(p.Amount, 64)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	var body invoiceBody
	line := invoiceLine{Amount: amount, DetailType: "SalesItemLineDetail"}
	line.Detail.ItemRef.Value = p.ItemID
	line.Detail.ItemRef.Name = p.ItemName
	body.Line = []invoiceLine{line}
	body.CustomerRef.Value = p.CustomerID
	body.CustomField = []customFieldValue{{
		DefinitionID: p.CustomFieldID,
		Type:         "StringType",
		StringValue:  p.CustomFieldValue,
	}}

	result, err := s.client.CreateInvoice(ctx, accessToken, realmID, body)
	if err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, ErrAmbiguousResponse
	}

	s.logger.Info("invoice created", zap.String("invoice_id", result.ID))
	return &Ref{
		ID:       result.ID,
		DeepLink: fmt.Sprintf("%s?txnId=%s&companyId=%s", s.deepLinkBase, result.ID, realmID),
	}, nil
}
