// Package vault wraps the secret store holding the settlement-rail
// account material for every marketplace identity. The engine never
// sees keys; only the rail reads them here.
package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

type Vault struct {
	UserPath string
	*api.Client
}

func New(token, unsealKey, address, userPath string) (*Vault, error) {
	config := &api.Config{
		Address: address,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("new: error initializing vault: %w", err)
	}

	client.SetToken(token)

	s := client.Sys()
	status, err := s.SealStatus()
	if err != nil {
		return nil, fmt.Errorf("new: error getting seal status: %w", err)
	}

	if !status.Sealed {
		unsealResponse, err := s.Unseal(unsealKey)
		if err != nil {
			return nil, fmt.Errorf("new: error getting unseal response: %w", err)
		}
		if unsealResponse.Sealed {
			return nil, fmt.Errorf("new: vault unseal unsuccesfull")
		}
	}

	if err := createIfNotExists(client, userPath); err != nil {
		return nil, fmt.Errorf("new: unable to mount user path: %w", err)
	}

	return &Vault{UserPath: userPath, Client: client}, nil
}

// WriteSecret stores key material for one identity under the user
// mount.
func (v *Vault) WriteSecret(id string, data map[string]interface{}) error {
	path := fmt.Sprintf("%s/%s", v.UserPath, id)
	if _, err := v.Logical().Write(path, data); err != nil {
		return fmt.Errorf("writeSecret: unable to write secret for %s: %w", id, err)
	}
	return nil
}

// ReadSecret fetches the key material of one identity. The boolean is
// false when nothing is stored under the id.
func (v *Vault) ReadSecret(id string) (map[string]interface{}, bool, error) {
	path := fmt.Sprintf("%s/%s", v.UserPath, id)
	secret, err := v.Logical().Read(path)
	if err != nil {
		return nil, false, fmt.Errorf("readSecret: unable to read secret for %s: %w", id, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, false, nil
	}
	return secret.Data, true, nil
}

func createIfNotExists(client *api.Client, path string) error {
	mounts, err := client.Sys().ListMounts()
	if err != nil {
		return fmt.Errorf("createIfNotExists: unable to list mounts: %w", err)
	}

	if _, ok := mounts[path+"/"]; !ok {
		err = client.Sys().Mount(path, &api.MountInput{Type: "kv"})
		if err != nil {
			return fmt.Errorf("createIfNotExists: unable to create path: %w", err)
		}
	}

	return nil
}
