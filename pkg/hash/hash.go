package hash

import "golang.org/x/crypto/bcrypt"

// Cost menentukan work factor bcrypt.
// bcrypt.DefaultCost (10) cukup untuk produksi dan masih cepat untuk test.
var Cost = bcrypt.DefaultCost

// HashPassword menghasilkan bcrypt hash (dengan salt acak) dari password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword membandingkan password plaintext dengan hash yang tersimpan.
func CheckPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
