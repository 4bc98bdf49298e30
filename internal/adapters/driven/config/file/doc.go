// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML settings in ~/.sercha-context/config.toml
//   - PromptStore: editable prompt templates in ~/.sercha-context/prompts
package file
