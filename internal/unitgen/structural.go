package unitgen

// StructuralValidator checks that required fields are present and within
// length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(u *ReviewUnit, _ GenerateInput) *ValidationError {
	if u.Question == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question is empty",
			Retryable: true,
		}
	}
	if len(u.Question) > 500 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question exceeds 500 characters",
			Retryable: true,
		}
	}
	if u.Answer == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "answer is empty",
			Retryable: true,
		}
	}
	if len(u.Answer) > 500 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "answer exceeds 500 characters",
			Retryable: true,
		}
	}
	if len(u.Context) > 600 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "context exceeds 600 characters",
			Retryable: true,
		}
	}
	return nil
}
