// customfield/service.go
package customfield

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eGGnogSC/qbfields/pkg/qbclient"
)

// transactionEntity is the association whose sub-associations determine
// which transaction types a field applies to.
const transactionEntity = "/transactions/Transaction"

// Definition is an active custom field definition as cached in the session.
// Selected is view state only and defaults to true on every fetch.
type Definition struct {
	ID               string   `json:"id"`
	LegacyIDV2       string   `json:"legacyIDV2"`
	Label            string   `json:"label"`
	Active           bool     `json:"active"`
	TransactionTypes []string `json:"transaction_types"`
	Selected         bool     `json:"selected"`
}

// ToggleFailure records a single definition whose activate/deactivate
// mutation failed during reconciliation.
type ToggleFailure struct {
	Label string
	Err   error
}

// Service manages custom field definitions through the GraphQL endpoint.
type Service struct {
	client *qbclient.Client
	logger *zap.Logger
}

// NewService creates a new custom field service.
func NewService(client *qbclient.Client, logger *zap.Logger) *Service {
	return &Service{client: client, logger: logger}
}

type definitionNode struct {
	ID           string `json:"id"`
	LegacyIDV2   string `json:"legacyIDV2"`
	Label        string `json:"label"`
	Active       bool   `json:"active"`
	Associations []struct {
		AssociatedEntity string `json:"associatedEntity"`
		SubAssociations  []struct {
			AssociatedEntity string `json:"associatedEntity"`
		} `json:"subAssociations"`
	} `json:"associations"`
}

type definitionsData struct {
	Definitions struct {
		Edges []struct {
			Node definitionNode `json:"node"`
		} `json:"edges"`
	} `json:"appFoundationsCustomFieldDefinitions"`
}

// List fetches all custom field definitions and returns the active ones.
// TransactionTypes collects the sub-association entity types under the
// Transaction association; other associations (e.g. Contact) are excluded.
func (s *Service) List(ctx context.Context, accessToken string) ([]Definition, error) {
	resp, err := s.client.GraphQL(ctx, accessToken, listDefinitionsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch custom fields: %w", err)
	}
	if resp.HasErrors() {
		return nil, fmt.Errorf("fetch custom fields: %w", resp.Errors[0])
	}

	var data definitionsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("parse custom fields: %w", err)
	}

	defs := make([]Definition, 0, len(data.Definitions.Edges))
	for _, edge := range data.Definitions.Edges {
		node := edge.Node
		if !node.Active {
			continue
		}
		defs = append(defs, Definition{
			ID:               node.ID,
			LegacyIDV2:       node.LegacyIDV2,
			Label:            node.Label,
			Active:           node.Active,
			TransactionTypes: transactionTypes(node),
			Selected:         true,
		})
	}
	return defs, nil
}

func transactionTypes(node definitionNode) []string {
	var types []string
	for _, assoc := range node.Associations {
		if assoc.AssociatedEntity != transactionEntity {
			continue
		}
		for _, sub := range assoc.SubAssociations {
			types = append(types, sub.AssociatedEntity)
		}
	}
	return types
}

// Create defines a new STRING custom field associated with sales invoices
// and customers. Provider error codes for the entity limit and duplicate
// labels are mapped to their own errors so the caller can message them.
func (s *Service) Create(ctx context.Context, accessToken, label string) error {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"label":    label,
			"dataType": "STRING",
			"active":   true,
			"associations": []interface{}{
				map[string]interface{}{
					"associatedEntity":     transactionEntity,
					"active":               true,
					"validationOptions":    map[string]interface{}{"required": false},
					"allowedOperations":    []interface{}{},
					"associationCondition": "INCLUDED",
					"subAssociations": []interface{}{
						map[string]interface{}{
							"associatedEntity":  "SALE_INVOICE",
							"active":            true,
							"allowedOperations": []interface{}{},
						},
					},
				},
				map[string]interface{}{
					"associatedEntity":     "/network/Contact",
					"active":               true,
					"validationOptions":    map[string]interface{}{"required": false},
					"allowedOperations":    []interface{}{},
					"associationCondition": "INCLUDED",
					"subAssociations": []interface{}{
						map[string]interface{}{
							"associatedEntity":  "CUSTOMER",
							"active":            true,
							"allowedOperations": []interface{}{},
						},
					},
				},
			},
		},
	}

	resp, err := s.client.GraphQL(ctx, accessToken, createDefinitionMutation, variables)
	if err != nil {
		return fmt.Errorf("create custom field: %w", err)
	}
	if resp.HasErrors() {
		for _, gqlErr := range resp.Errors {
			switch gqlErr.Code() {
			case "CUSTOM_FIELD_ASSOCIATED_ENTITY_LIMIT_EXCEEDED":
				return ErrEntityLimitExceeded
			case "LABEL_ALREADY_EXISTS":
				return ErrLabelExists
			}
		}
		return &CreateError{Errors: resp.Errors}
	}

	s.logger.Info("custom field created", zap.String("label", label))
	return nil
}

// SetActiveStates reconciles every definition's active flag against the
// selected set: selected definitions become active, unselected ones become
// inactive. Per-definition mutation failures are collected and returned;
// a failure on one definition does not stop the rest.
func (s *Service) SetActiveStates(ctx context.Context, accessToken string, selectedIDs map[string]bool) ([]ToggleFailure, error) {
	resp, err := s.client.GraphQL(ctx, accessToken, listDefinitionSummariesQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch custom fields: %w", err)
	}
	if resp.HasErrors() {
		return nil, fmt.Errorf("fetch custom fields: %w", resp.Errors[0])
	}

	var data definitionsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("parse custom fields: %w", err)
	}

	var failures []ToggleFailure
	for _, edge := range data.Definitions.Edges {
		node := edge.Node
		var activate bool
		switch {
		case !selectedIDs[node.ID] && node.Active:
			activate = false
		case selectedIDs[node.ID] && !node.Active:
			activate = true
		default:
			continue
		}
		if err := s.setActive(ctx, accessToken, node, activate); err != nil {
			s.logger.Warn("custom field toggle failed",
				zap.String("label", node.Label),
				zap.Bool("activate", activate),
				zap.Error(err))
			failures = append(failures, ToggleFailure{Label: node.Label, Err: err})
		}
	}
	return failures, nil
}

func (s *Service) setActive(ctx context.Context, accessToken string, node definitionNode, active bool) error {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"id":         node.ID,
			"legacyIDV2": node.LegacyIDV2,
			"label":      node.Label,
			"active":     active,
		},
	}
	resp, err := s.client.GraphQL(ctx, accessToken, updateDefinitionMutation, variables)
	if err != nil {
		return err
	}
	if resp.HasErrors() {
		return resp.Errors[0]
	}
	return nil
}

// Sentinel errors for the provider's structured create failures.
var (
	ErrEntityLimitExceeded = errors.New("maximum number of associated entities for custom fields exceeded")
	ErrLabelExists         = errors.New("a custom field with this label already exists")
)

// CreateError wraps any other structured GraphQL failure from a create.
type CreateError struct {
	Errors []qbclient.GraphQLError
}

func (e *CreateError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("failed to create custom field: %s", e.Errors[0].Error())
	}
	return "failed to create custom field"
}
