package churnapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseValidatorResolvesReferences(t *testing.T) {
	v := NewResponseValidator()

	require.NoError(t, v.Validate(schemaCustomers, []byte(`{"customers":[{"id":1}],"total":1}`)))
	assert.Error(t, v.Validate(schemaCustomers, []byte(`{"customers":[{"customer_city":"x"}]}`)))
}

func TestResponseValidatorSchemas(t *testing.T) {
	v := NewResponseValidator()
	cases := []struct {
		schema string
		body   string
		valid  bool
	}{
		{schemaCampaigns, `[]`, true},
		{schemaCampaigns, `{}`, false},
		{schemaCampaign, `{"id": 1, "discount_percentage": 12.5}`, true},
		{schemaChart, `{"labels":["a"],"data":[1]}`, true},
		{schemaChart, `{"labels":"a"}`, false},
		{schemaHealth, `{"status":"healthy"}`, true},
		{schemaHealth, `{}`, false},
		{schemaSummary, `{"total_customers": -1}`, false},
		{schemaMutation, `{"id": 3, "message": "ok"}`, true},
	}
	for _, tc := range cases {
		err := v.Validate(tc.schema, []byte(tc.body))
		if tc.valid {
			assert.NoError(t, err, "%s %s", tc.schema, tc.body)
		} else {
			assert.Error(t, err, "%s %s", tc.schema, tc.body)
		}
	}
}

func TestResponseValidatorRejectsMalformedJSON(t *testing.T) {
	assert.Error(t, NewResponseValidator().Validate(schemaHealth, []byte(`{`)))
	assert.NoError(t, NewResponseValidator().Validate("", []byte(`{`)))
}
