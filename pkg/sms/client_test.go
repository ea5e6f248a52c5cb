package sms

import (
	"context"
	"testing"

	"github.com/caretap/caretap_backend/config"
)

func TestNewFromConfig_Disabled(t *testing.T) {
	client, err := NewFromConfig(config.SMSConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if client.IsEnabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestNewFromConfig_EnabledWithoutAPIKey(t *testing.T) {
	cfg := config.SMSConfig{
		Enabled: true,
		SMSIR: config.SMSIRConfig{
			APIKey:     "",
			TemplateID: "test-template",
		},
	}

	if _, err := NewFromConfig(cfg); err == nil {
		t.Error("Expected error when API key is missing")
	}
}

func TestSendTemplate_DisabledClient(t *testing.T) {
	client := &Client{enabled: false}

	err := client.SendTemplate(context.Background(), "+989121234567", "template-id", nil)
	if err != nil {
		t.Errorf("Expected no error for disabled client, got: %v", err)
	}
}

func TestSendTemplate_Validation(t *testing.T) {
	client := &Client{enabled: true}

	tests := []struct {
		name        string
		phone       string
		templateID  string
		expectError bool
	}{
		{name: "empty phone number", phone: "", templateID: "template-id", expectError: true},
		{name: "empty template ID", phone: "+989121234567", templateID: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.SendTemplate(context.Background(), tt.phone, tt.templateID, nil)
			if tt.expectError && err == nil {
				t.Error("Expected error but got nil")
			}
		})
	}
}
