// Package config loads timberwolf run configuration.
//
// A configuration file is YAML. Decoding is strict: unknown keys are
// rejected. Fields missing from the file keep their defaults (see Default).
// The decoded configuration is then checked against an embedded CUE schema
// (schema.cue), which owns every range and enum rule; Go code only converts
// between representations.
//
// Example:
//
//	name: arcade
//	render:
//	  rate: 60
//	update:
//	  rate: 20
//	  speed: 1.5
//	log:
//	  level: debug
//	store:
//	  path: runs.db
package config
