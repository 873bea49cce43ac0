package shared

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationRequest_Unmarshal(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		expectedAmt   NumericString
		expectedCard  NumericString
		expectToken   bool
		expectedError bool
	}{
		{
			name:         "NumericAmount",
			body:         `{"merchant_name":"Shop","bank":"FirstBank","cc_num":"4111111111111111","amount":150,"card_type":"Credit"}`,
			expectedAmt:  "150",
			expectedCard: "4111111111111111",
		},
		{
			name:         "StringAmountWithToken",
			body:         `{"merchant_name":"Shop","merchant_token":"abc","bank":"FirstBank","cc_num":"4111111111111111","amount":"150.25","card_type":"Credit"}`,
			expectedAmt:  "150.25",
			expectedCard: "4111111111111111",
			expectToken:  true,
		},
		{
			name:         "EmptyTokenIsStillPresent",
			body:         `{"merchant_name":"Shop","merchant_token":"","amount":1}`,
			expectedAmt:  "1",
			expectedCard: "",
			expectToken:  true,
		},
		{
			name:         "NumericCardNumber",
			body:         `{"merchant_name":"Shop","cc_num":4111111111111111,"amount":"1"}`,
			expectedAmt:  "1",
			expectedCard: "4111111111111111",
		},
		{
			name:          "BooleanAmount",
			body:          `{"merchant_name":"Shop","amount":true}`,
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var req AuthorizationRequest
			err := json.Unmarshal([]byte(tc.body), &req)
			if tc.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAmt, req.Amount)
			assert.Equal(t, tc.expectedCard, req.CardNumber)
			assert.Equal(t, tc.expectToken, req.HasToken())
		})
	}
}

func TestCardSuffix(t *testing.T) {
	assert.Equal(t, "1111", CardSuffix("4111111111111111"))
	assert.Equal(t, "123", CardSuffix("123"))
	assert.Equal(t, "", CardSuffix(""))
}

func TestDecision_Label(t *testing.T) {
	assert.Equal(t, "approved", DecisionApproved.Label())
	assert.Equal(t, "declined", DecisionInsufficientFunds.Label())
	assert.Equal(t, "error", DecisionProcessingError.Label())
	assert.Equal(t, "error", Decision("something else").Label())
	assert.Equal(t, "Approved.", DecisionApproved.String())
}
