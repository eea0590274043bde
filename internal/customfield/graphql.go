// customfield/graphql.go
package customfield

// GraphQL documents for the appFoundations custom field definition API.
// Mutations take their input through variables; values are never spliced
// into the document text.

const listDefinitionsQuery = `
query {
  appFoundationsCustomFieldDefinitions {
    edges {
      node {
        id
        legacyIDV2
        label
        active
        associations {
          associatedEntity
          active
          validationOptions { required }
          allowedOperations
          associationCondition
          subAssociations {
            associatedEntity
            active
            allowedOperations
          }
        }
      }
    }
  }
}`

const listDefinitionSummariesQuery = `
query {
  appFoundationsCustomFieldDefinitions {
    edges {
      node {
        id
        legacyIDV2
        label
        active
      }
    }
  }
}`

const createDefinitionMutation = `
mutation AppFoundationsCreateCustomFieldDefinition($input: AppFoundations_CustomFieldDefinitionCreateInput!) {
  appFoundationsCreateCustomFieldDefinition(input: $input) {
    label
    active
    associations {
      associatedEntity
      active
      validationOptions { required }
      allowedOperations
      associationCondition
      subAssociations {
        associatedEntity
        active
        allowedOperations
      }
    }
    dataType
    dropDownOptions {
      value
      active
      order
    }
  }
}`

const updateDefinitionMutation = `
mutation AppFoundationsUpdateCustomFieldDefinition($input: AppFoundations_CustomFieldDefinitionUpdateInput!) {
  appFoundationsUpdateCustomFieldDefinition(input: $input) {
    id
    active
  }
}`
