package password

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	// MinLength is the shortest password accepted at registration
	MinLength = 8
)

// Hasher is the one-way hash+verify capability used by the account services
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Bcrypt implements Hasher with golang.org/x/crypto/bcrypt
type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a Hasher using DefaultCost
func NewBcrypt() Bcrypt {
	return Bcrypt{Cost: DefaultCost}
}

// Hash hashes a password using bcrypt
func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a password with a hash
func (b Bcrypt) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Hash hashes with the default hasher
func Hash(password string) (string, error) {
	return NewBcrypt().Hash(password)
}

// Verify compares with the default hasher
func Verify(password, hash string) bool {
	return NewBcrypt().Verify(password, hash)
}

// ValidatePassword checks if password meets requirements
func ValidatePassword(password string) bool {
	return len(password) >= MinLength
}
