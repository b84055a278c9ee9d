package auth

type Repository interface {
	// GenerateToken generates a new auth token for uniqueID that expires
	// after the configured expiry.
	GenerateToken(uniqueID string) (string, error)
	// IsValid checks the token is valid and unexpired and returns its
	// uniqueID.
	IsValid(token string) (string, bool)
}
