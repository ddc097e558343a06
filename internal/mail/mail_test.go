package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendMissingCredentials(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		password string
		to       string
	}{
		{"missing sender", "", "secret", "to@example.com"},
		{"missing password", "from@example.com", "", "to@example.com"},
		{"missing recipient", "from@example.com", "secret", ""},
		{"all missing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSMTPSender("smtp.gmail.com", 587, tt.from, tt.password, tt.to)
			err := s.Send(context.Background(), "subject", "<html></html>")
			assert.ErrorIs(t, err, ErrMissingCredentials)
		})
	}
}
