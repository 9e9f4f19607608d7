// Package config loads the nubu settings file.
//
// The file is looked up in $XDG_CONFIG_HOME and then ~/.config,
// under the names nubu.conf, nubu.toml, nubu.yaml and nubu.yml.
// The first match wins. .conf and .toml files are TOML, the
// others YAML. When no file exists a default one is written to
// the first lookup directory.
//
// All settings live under a single "project" table. Its scalar
// and list keys apply to every repository; a nested table named
// after a repository overrides them for that repository only:
//
//	[project]
//	branches = ["develop", "acceptance", "main"]
//
//	[project.MysteryOfAton]
//	branches = ["fab", "hawt", "glory"]
//
// Settings resolves each key from the repository table, then
// the global keys, then the built-in defaults.
package config
