package validators

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		exists      bool
		unsupported bool
	}{
		{"nil", nil, false, false},
		{"generic", errors.New("boom"), false, false},
		{"namespace exists code", mongo.CommandError{Code: 48, Message: "collection already exists"}, true, false},
		{"namespace exists wrapped", fmt.Errorf("create: %w", mongo.CommandError{Code: 48}), true, false},
		{"no such command", mongo.CommandError{Code: 59, Message: "no such command: 'collMod'"}, false, true},
		{"not supported code", mongo.CommandError{Code: 115}, false, true},
		{"not implemented text", errors.New("Feature Not Implemented"), false, true},
		{"other code", mongo.CommandError{Code: 121, Message: "Document failed validation"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := namespaceExists(tt.err); got != tt.exists {
				t.Errorf("namespaceExists = %v, want %v", got, tt.exists)
			}
			if got := unsupported(tt.err); got != tt.unsupported {
				t.Errorf("unsupported = %v, want %v", got, tt.unsupported)
			}
		})
	}
}
