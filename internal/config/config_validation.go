package config

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive error
// otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Storage.Archives.Dir == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	// bcrypt accepts cost factors between 4 and 31.
	if cfg.App.BcryptCost < 4 || cfg.App.BcryptCost > 31 {
		return ErrInvalidAppConfigs
	}

	if cfg.Sync.MaxDeltaSize < 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
