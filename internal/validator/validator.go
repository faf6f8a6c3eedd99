package validator

// Validator bundles struct validation and business rule validation
type Validator struct {
	business *BusinessValidator
}

// New creates a validator with the business rules registered
func New() *Validator {
	return &Validator{
		business: NewBusinessValidator(),
	}
}

// GetBusinessValidator returns the business rule validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// Validate validates struct tags on any request type
func (v *Validator) Validate(s interface{}) ValidationErrors {
	return v.business.Validate(s)
}
