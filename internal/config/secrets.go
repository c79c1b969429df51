package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the harvester's secrets in the OS keychain.
const KeyringService = "go-job-harvester"

// resolvePassword fills in the database password from the OS keyring when the
// URL carries none and a keyring account is configured.
func resolvePassword(cfg *Config) error {
	account := strings.TrimSpace(cfg.Database.KeyringAccount)
	if account == "" {
		return nil
	}
	u, err := url.Parse(cfg.Database.URL)
	if err != nil || u.User == nil {
		return nil
	}
	if _, ok := u.User.Password(); ok {
		return nil
	}

	pw, err := keyring.Get(KeyringService, account)
	if err != nil {
		return fmt.Errorf("%w: database password for %q not found in keyring: %v", ErrInvalid, account, err)
	}
	u.User = url.UserPassword(u.User.Username(), pw)
	cfg.Database.URL = u.String()
	return nil
}
