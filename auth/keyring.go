// Package auth resolves credentials for outbound services, preferring configuration and
// falling back to the system keyring.
package auth

import (
	"errors"

	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/key"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const service = constant.Cinegate

// Secrets lists the configuration keys that may be kept in the keyring.
var Secrets = []string{key.RenderAPIKey, key.BrowserRemotePassword}

// IsSecret reports whether name is a keyring-backed configuration key.
func IsSecret(name string) bool {
	for _, s := range Secrets {
		if s == name {
			return true
		}
	}
	return false
}

// Secret returns the value configured for name via environment or config file.
// If none is configured the keyring entry is used; a missing entry yields "".
func Secret(name string) (string, error) {
	if v := viper.GetString(name); v != "" {
		return v, nil
	}

	v, err := keyring.Get(service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetSecret persists a credential to the system keyring.
func SetSecret(name, value string) error {
	return keyring.Set(service, name, value)
}

// DeleteSecret removes a credential from the system keyring.
func DeleteSecret(name string) error {
	return keyring.Delete(service, name)
}
