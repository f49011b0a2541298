package credentials

import (
	"encoding/json"
	"errors"
	"os/user"
	"strings"

	"github.com/zalando/go-keyring"
)

// Service names the Codex CLI has used for its secret-store entry.
var keyringServices = []string{"Codex", "codex", "openai-codex", "Codex CLI"}

type SecretReader interface {
	Get(service, username string) (string, error)
}

type systemKeyring struct{}

func (systemKeyring) Get(service, username string) (string, error) {
	return keyring.Get(service, username)
}

func readKeyring(reader SecretReader) (Credentials, error) {
	username := ""
	if current, err := user.Current(); err == nil {
		username = current.Username
	}

	for _, service := range keyringServices {
		secret, err := reader.Get(service, username)
		if err != nil {
			continue
		}
		secret = strings.TrimSpace(secret)
		if secret == "" {
			continue
		}

		// The stored value may be a full auth.json blob or a bare token.
		if json.Valid([]byte(secret)) {
			if creds, err := parseAuthJSON([]byte(secret)); err == nil {
				creds.Source = "keyring:" + service
				return creds, nil
			}
			continue
		}
		return Credentials{
			AccessToken: secret,
			OAuth:       true,
			Source:      "keyring:" + service,
		}, nil
	}
	return Credentials{}, errors.New("codex credentials not found in system keyring")
}
