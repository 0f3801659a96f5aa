package config

type SecurityConfig interface {
	GetBcryptCost() int
	GetPINMaxAttempts() int
	GetPINLength() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetBcryptCost() int {
	return intEnv("BCRYPT_COST", 10)
}

func (Security) GetPINMaxAttempts() int {
	return intEnv("PIN_MAX_ATTEMPTS", 3)
}

func (Security) GetPINLength() int {
	return intEnv("PIN_LENGTH", 6)
}
