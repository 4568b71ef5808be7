// Package config manages user-level settings stored at ~/.tailor/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the default recipe source and the default conflict policy.
package config
