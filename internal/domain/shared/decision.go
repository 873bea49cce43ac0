package shared

// Decision is the literal result string returned to the caller. The values are
// part of the external contract and must not change.
type Decision string

const (
	DecisionSuccess               Decision = "Success"
	DecisionMerchantNotAuthorized Decision = "Error: Merchant not authorized"
	DecisionMerchantNameMissing   Decision = "Error: Merchant name not provided"
	DecisionBankNotAvailable      Decision = "Error: Bank not available"
	DecisionCardNotFound          Decision = "Error: credit card not found."
	DecisionBankNotFound          Decision = "Error: bank not found."
	DecisionDebitNotAllowed       Decision = "Error: Debit not valid transaction type"
	DecisionInsufficientFunds     Decision = "Declined. Insufficient Funds."
	DecisionApproved              Decision = "Approved."
	DecisionProcessingError       Decision = "Error processing transaction."
)

func (d Decision) String() string {
	return string(d)
}

// Label is a short metric friendly name for the decision.
func (d Decision) Label() string {
	switch d {
	case DecisionSuccess:
		return "success"
	case DecisionMerchantNotAuthorized:
		return "merchant_not_authorized"
	case DecisionMerchantNameMissing:
		return "merchant_name_missing"
	case DecisionBankNotAvailable:
		return "bank_not_available"
	case DecisionCardNotFound:
		return "card_not_found"
	case DecisionBankNotFound:
		return "bank_not_found"
	case DecisionDebitNotAllowed:
		return "debit_not_allowed"
	case DecisionInsufficientFunds:
		return "declined"
	case DecisionApproved:
		return "approved"
	default:
		return "error"
	}
}
