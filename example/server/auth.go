package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bhoriuchi/graphql-subscriptions-transport/metadata"
	"github.com/bhoriuchi/graphql-subscriptions-transport/transport"
	"github.com/golang-jwt/jwt/v5"
)

var errMissingToken = errors.New("missing authToken")

// newJWTOnConnect accepts connections whose connection_init payload carries
// an HS256 authToken signed with secret. The token claims become the
// operation context of the connection.
func newJWTOnConnect(secret []byte) transport.ConnectFunc {
	return func(payload interface{}, socket transport.Socket, c *transport.ConnectionContext) (interface{}, error) {
		token, err := authToken(payload)
		if err != nil {
			return false, nil
		}

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			return nil, fmt.Errorf("invalid authToken: %w", err)
		}

		return metadata.Fields{"claims": map[string]interface{}(claims)}, nil
	}
}

func authToken(payload interface{}) (string, error) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return "", errMissingToken
	}

	token, _ := m["authToken"].(string)
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}
