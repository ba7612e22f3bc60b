// Package config loads, normalizes, and validates flashy configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need: enumeration cadence and vendor filters, qdl invocation
// settings, adb integration, and log routing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical storage tags, and clear validation errors.
package config
