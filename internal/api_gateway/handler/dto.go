package handler

// AuthorizationResponse is the envelope of the synchronous authorization
// endpoint. StatusCode is always 200; Body carries the decision string.
type AuthorizationResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// SubmitResponse is returned when a request is queued for asynchronous processing
type SubmitResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// TransactionResponse represents a transaction record in API responses
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	RequestID     string `json:"request_id,omitempty"`
	MerchantName  string `json:"merchant_name"`
	CardSuffix    string `json:"card_suffix"`
	Amount        string `json:"amount"`
	Approved      bool   `json:"approved"`
	ErrorReason   string `json:"error_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// CardResponse is the masked view of an issuer account
type CardResponse struct {
	CardSuffix  string `json:"card_suffix"`
	BankName    string `json:"bank_name"`
	CreditLimit string `json:"credit_limit"`
	CreditUsed  string `json:"credit_used"`
	Available   string `json:"available"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=10" binding:"min=1,max=100"`
}
