// Package registry maps automaton names to blueprints and creates machines
// from them. It backs the CLI, the HTTP API and the MCP server.
package registry
