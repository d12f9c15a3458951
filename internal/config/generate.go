package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configFileHeader = `# fieldscan configuration file.
# Values here are overridden by FIELDSCAN_* environment variables and
# command-line flags.
`

// GenerateDefaultConfigFile writes the default configuration as YAML.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	out := append([]byte(configFileHeader), data...)
	if err := os.WriteFile(filename, out, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}
