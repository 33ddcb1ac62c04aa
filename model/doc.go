// Package model defines the provider-agnostic generation interface plus the
// normalized request/response structures exchanged with the vendor adapters
// in the subpackages (openai, anthropic, gemini). A MockModel is provided
// for tests.
package model
