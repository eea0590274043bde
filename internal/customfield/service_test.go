package customfield

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eGGnogSC/qbfields/pkg/qbclient"
)

func newTestService(graphqlURL string) *Service {
	client := qbclient.NewClient("http://unused.invalid", graphqlURL, "70", zap.NewNop())
	return NewService(client, zap.NewNop())
}

const listFixture = `{
  "data": {
    "appFoundationsCustomFieldDefinitions": {
      "edges": [
        {"node": {
          "id": "A", "legacyIDV2": "1", "label": "Priority", "active": true,
          "associations": [
            {"associatedEntity": "/transactions/Transaction",
             "subAssociations": [{"associatedEntity": "SALE_INVOICE"}]},
            {"associatedEntity": "/network/Contact",
             "subAssociations": [{"associatedEntity": "CUSTOMER"}]}
          ]
        }},
        {"node": {
          "id": "B", "legacyIDV2": "2", "label": "Old field", "active": false,
          "associations": []
        }}
      ]
    }
  }
}`

func TestList_KeepsOnlyActiveDefinitions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listFixture)
	}))
	defer ts.Close()

	defs, err := newTestService(ts.URL).List(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "A", defs[0].ID)
	assert.Equal(t, "Priority", defs[0].Label)
	assert.True(t, defs[0].Active)
	assert.True(t, defs[0].Selected, "selected defaults to true on fetch")
}

func TestList_TransactionTypesExcludeContactBranch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listFixture)
	}))
	defer ts.Close()

	defs, err := newTestService(ts.URL).List(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, []string{"SALE_INVOICE"}, defs[0].TransactionTypes)
}

func TestCreate_SendsParameterizedInput(t *testing.T) {
	var received map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"data":{"appFoundationsCreateCustomFieldDefinition":{"label":"Priority","active":true}}}`)
	}))
	defer ts.Close()

	err := newTestService(ts.URL).Create(context.Background(), "tok", "Priority")

	require.NoError(t, err)
	query := received["query"].(string)
	assert.Contains(t, query, "$input")
	assert.NotContains(t, query, "Priority", "label must travel in variables, not the document")

	input := received["variables"].(map[string]interface{})["input"].(map[string]interface{})
	assert.Equal(t, "Priority", input["label"])
	assert.Equal(t, "STRING", input["dataType"])
	assert.Equal(t, true, input["active"])

	assocs := input["associations"].([]interface{})
	require.Len(t, assocs, 2)
	first := assocs[0].(map[string]interface{})
	assert.Equal(t, "/transactions/Transaction", first["associatedEntity"])
	sub := first["subAssociations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "SALE_INVOICE", sub["associatedEntity"])
}

func TestCreate_MapsStructuredErrorCodes(t *testing.T) {
	tests := []struct {
		code    string
		wantErr error
	}{
		{"CUSTOM_FIELD_ASSOCIATED_ENTITY_LIMIT_EXCEEDED", ErrEntityLimitExceeded},
		{"LABEL_ALREADY_EXISTS", ErrLabelExists},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"errors":[{"message":"nope","extensions":{"errorCode":{"errorCode":"%s"}}}]}`, tt.code)
			}))
			defer ts.Close()

			err := newTestService(ts.URL).Create(context.Background(), "tok", "Priority")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreate_OtherStructuredErrorIsCreateError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"boom","extensions":{"errorCode":{"errorCode":"SOMETHING_ELSE"}}}]}`)
	}))
	defer ts.Close()

	err := newTestService(ts.URL).Create(context.Background(), "tok", "Priority")

	var createErr *CreateError
	require.ErrorAs(t, err, &createErr)
	assert.Contains(t, createErr.Error(), "SOMETHING_ELSE")
}

func TestSetActiveStates_IssuesExactlyTheNeededMutations(t *testing.T) {
	type mutationInput struct {
		ID     string
		Active bool
	}
	var mutations []mutationInput

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Query     string `json:"query"`
			Variables struct {
				Input struct {
					ID         string `json:"id"`
					LegacyIDV2 string `json:"legacyIDV2"`
					Label      string `json:"label"`
					Active     bool   `json:"active"`
				} `json:"input"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		if strings.Contains(payload.Query, "mutation") {
			assert.NotEmpty(t, payload.Variables.Input.LegacyIDV2)
			assert.NotEmpty(t, payload.Variables.Input.Label)
			mutations = append(mutations, mutationInput{
				ID:     payload.Variables.Input.ID,
				Active: payload.Variables.Input.Active,
			})
			fmt.Fprint(w, `{"data":{"appFoundationsUpdateCustomFieldDefinition":{"id":"x","active":true}}}`)
			return
		}

		fmt.Fprint(w, `{
		  "data": {"appFoundationsCustomFieldDefinitions": {"edges": [
		    {"node": {"id": "A", "legacyIDV2": "1", "label": "Keep me not", "active": true}},
		    {"node": {"id": "B", "legacyIDV2": "2", "label": "Revive me", "active": false}},
		    {"node": {"id": "C", "legacyIDV2": "3", "label": "Untouched", "active": true}}
		  ]}}
		}`)
	}))
	defer ts.Close()

	failures, err := newTestService(ts.URL).SetActiveStates(context.Background(), "tok",
		map[string]bool{"B": true, "C": true})

	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, mutations, 2, "one deactivate and one activate, nothing else")
	assert.Contains(t, mutations, mutationInput{ID: "A", Active: false})
	assert.Contains(t, mutations, mutationInput{ID: "B", Active: true})
}

func TestSetActiveStates_CollectsPerDefinitionFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		if strings.Contains(payload.Query, "mutation") {
			fmt.Fprint(w, `{"errors":[{"message":"cannot update","extensions":{"errorCode":{"errorCode":"INTERNAL"}}}]}`)
			return
		}
		fmt.Fprint(w, `{
		  "data": {"appFoundationsCustomFieldDefinitions": {"edges": [
		    {"node": {"id": "A", "legacyIDV2": "1", "label": "Doomed", "active": true}}
		  ]}}
		}`)
	}))
	defer ts.Close()

	failures, err := newTestService(ts.URL).SetActiveStates(context.Background(), "tok", map[string]bool{})

	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "Doomed", failures[0].Label)
	assert.Error(t, failures[0].Err)
}
