// Package config loads the JSON configuration file described in
// SPEC_FULL.md §6/§11. The teacher repo has no JSON config loader of its
// own (it takes a NODE_ID environment variable and CLI flags); this
// module fills that ambient gap with github.com/spf13/viper, bound to a
// typed struct. Unknown keys are ignored by viper natively; required-key
// enforcement is explicit, since viper does not do that on its own.
package config

import (
	"github.com/spf13/viper"

	"github.com/kilimbaDaniel/ledgerd/internal/xerrors"
)

// FullnodeInfo holds the full node's own listening configuration.
type FullnodeInfo struct {
	Host                   string `mapstructure:"host"`
	ClientsListeningPort   int    `mapstructure:"clients_listening_port"`
	NeighborsListeningPort int    `mapstructure:"neighbors_listening_port"`
	DatabasePath           string `mapstructure:"database_path"`
}

// NeighborsInfo holds the single outbound neighbor's address.
type NeighborsInfo struct {
	NeighborAddress string `mapstructure:"neighbor_address"`
	NeighborPort    int    `mapstructure:"neighbor_port"`
}

// FullnodeConfig is the top-level shape of the config file recognized by
// SPEC_FULL.md §6.
type FullnodeConfig struct {
	FullnodeInfo  FullnodeInfo  `mapstructure:"FullnodeInfo"`
	NeighborsInfo NeighborsInfo `mapstructure:"NeighborsInfo"`
}

// Load reads and validates the JSON config file at path.
func Load(path string) (FullnodeConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return FullnodeConfig{}, &xerrors.FullnodeError{Reason: "reading config file: " + err.Error()}
	}

	var cfg FullnodeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return FullnodeConfig{}, &xerrors.FullnodeError{Reason: "parsing config file: " + err.Error()}
	}

	if err := cfg.validate(); err != nil {
		return FullnodeConfig{}, err
	}
	return cfg, nil
}

func (c FullnodeConfig) validate() error {
	if c.FullnodeInfo.Host == "" {
		return &xerrors.FullnodeError{Reason: "FullnodeInfo.host is required"}
	}
	if c.FullnodeInfo.ClientsListeningPort == 0 {
		return &xerrors.FullnodeError{Reason: "FullnodeInfo.clients_listening_port is required"}
	}
	if c.FullnodeInfo.NeighborsListeningPort == 0 {
		return &xerrors.FullnodeError{Reason: "FullnodeInfo.neighbors_listening_port is required"}
	}
	if c.FullnodeInfo.DatabasePath == "" {
		return &xerrors.FullnodeError{Reason: "FullnodeInfo.database_path is required"}
	}
	if c.NeighborsInfo.NeighborAddress == "" {
		return &xerrors.FullnodeError{Reason: "NeighborsInfo.neighbor_address is required"}
	}
	if c.NeighborsInfo.NeighborPort == 0 {
		return &xerrors.FullnodeError{Reason: "NeighborsInfo.neighbor_port is required"}
	}
	return nil
}
