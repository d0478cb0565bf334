// Package config loads and validates modkit.json, the project manifest
// for the dev server, build, and deploy commands.
package config
