// Package utils holds graphql document helpers shared by the HTTP handler
// and the subscriptions transport.
package utils

import (
	"encoding/json"
	"errors"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

// ErrAmbiguousOperation is returned when a document holds several operations
// and no operation name was given
var ErrAmbiguousOperation = errors.New("must provide operation name if query contains multiple operations")

// GetOperationAST returns the operation named operationName, or the only
// operation of the document when the name is empty. A nil operation means
// no operation matched.
func GetOperationAST(document *ast.Document, operationName string) (*ast.OperationDefinition, error) {
	var operation *ast.OperationDefinition

	for _, def := range document.Definitions {
		def, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}

		if operationName == "" {
			if operation != nil {
				return nil, ErrAmbiguousOperation
			}
			operation = def
			continue
		}

		if def.GetName() != nil && def.GetName().Value == operationName {
			return def, nil
		}
	}

	return operation, nil
}

// IsSubscriptionOperation returns true if the operation selected by
// operationName is a subscription
func IsSubscriptionOperation(document *ast.Document, operationName string) bool {
	operation, err := GetOperationAST(document, operationName)
	if err != nil || operation == nil {
		return false
	}
	return operation.Operation == ast.OperationTypeSubscription
}

// ParseQuery parses a query into a document
func ParseQuery(query string) (*ast.Document, error) {
	return parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{
			Body: []byte(query),
			Name: "GraphQL request",
		}),
	})
}

// ReMarshal converts one type to another through its JSON form
func ReMarshal(in, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
