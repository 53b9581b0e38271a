package auth

import "golang.org/x/crypto/bcrypt"

// HashGatewayKey hashes a gateway API key for storage in configuration.
func HashGatewayKey(key string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyGatewayKey checks a presented gateway key against its stored hash.
func VerifyGatewayKey(hashed, presented string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(presented))
}
