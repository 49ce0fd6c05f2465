// Package config loads the pinsync client configuration.
//
// Sources, later ones winning: built-in defaults, a JSON file named by
// -c/-config, then short command-line flags.
package config
