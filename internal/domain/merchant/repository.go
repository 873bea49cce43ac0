package merchant

import "context"

// Repository defines merchant credential persistence operations
type Repository interface {
	Upsert(ctx context.Context, credential *Credential) error
	GetByName(ctx context.Context, merchantName string) (*Credential, error)
}

// ErrCredentialNotFound indicates an unknown merchant
type ErrCredentialNotFound struct {
	MerchantName string
}

func (e ErrCredentialNotFound) Error() string {
	return "merchant credential not found: " + e.MerchantName
}

// Is implements the errors.Is interface for ErrCredentialNotFound
func (e ErrCredentialNotFound) Is(target error) bool {
	t, ok := target.(ErrCredentialNotFound)
	if !ok {
		return false
	}
	return t.MerchantName == "" || t.MerchantName == e.MerchantName
}
