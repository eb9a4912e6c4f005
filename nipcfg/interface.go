package nipcfg

// Validator is implemented by every config section that can check itself.
type Validator interface {
	// Validate returns an error describing the first invalid option.
	Validate() error
}

// Validate runs the validators in order and stops at the first failure.
func Validate(validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}
