package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ServiceAccount holds essential fields from your JSON key
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

var ErrMissingCredentials = errors.New("firebase credentials missing")

// LoadServiceAccount reads the service account file and checks the fields FCM needs.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no credentials file configured", ErrMissingCredentials)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	}
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("%w: malformed credentials file: %v", ErrMissingCredentials, err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" || sa.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id, client_email and private_key are required", ErrMissingCredentials)
	}
	return &sa, nil
}
