package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Submission tokens outlive the checkout flow so a user can come back
// for the download after paying.
const TokenExpirySubmission = 30 * 24 * time.Hour

// GenerateSubmissionToken issues an HS256 token scoped to a single
// submission. The submission id travels in the standard subject claim.
func GenerateSubmissionToken(submissionID, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": submissionID,
		"exp": time.Now().Add(TokenExpirySubmission).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
