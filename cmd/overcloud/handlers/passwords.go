package handlers

import (
	"context"

	"github.com/imamik/overcloud/internal/config"
)

// PasswordsGenerate fills in missing passwords and reports the file.
func PasswordsGenerate(_ context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store := newCredentialStore(config.ExpandPath(cfg.PasswordsFile))
	set, err := store.Set()
	if err != nil {
		return err
	}
	printf("%d passwords in %s\n", set.Len(), store.Path())
	return nil
}

// PasswordsShow prints the password called name, or every password name
// when name is empty.
func PasswordsShow(_ context.Context, configPath, name string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store := newCredentialStore(config.ExpandPath(cfg.PasswordsFile))

	if name != "" {
		v, err := store.Get(name)
		if err != nil {
			return err
		}
		printf("%s\n", v)
		return nil
	}

	set, err := store.Set()
	if err != nil {
		return err
	}
	for _, n := range set.Names() {
		printf("%s\n", n)
	}
	return nil
}
