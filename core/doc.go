// Package core defines the shared value types of the relay: role-tagged
// message content with a closed part union, the capability set an agent may
// carry, and the error kinds surfaced to the gateway. It has no dependencies
// on the model, tool or transport layers so every other package can import it.
package core
