// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader for the server settings
// using koanf as the underlying library.
//
// Features:
//
//   - Multiple Sources: YAML settings file, environment variables, flag maps
//   - Watch Support: change notification for the settings file
//   - Type Safety: Unmarshaling into typed structs
//   - Defaults: values already present in the target struct are kept
//     unless a source overrides them
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables
//  3. Settings file
//  4. Default values
package confloader
