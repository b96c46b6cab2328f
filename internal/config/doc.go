// Package config loads and validates orgkit.json, the client
// configuration file.
package config
