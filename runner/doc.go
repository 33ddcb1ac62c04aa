// Package runner executes one turn of a built agent against an ordered list
// of user queries and selects the response to surface. The reasoning loop
// alternates model generation and tool execution until the model stops
// requesting tools or the configured iteration bound is hit.
package runner
