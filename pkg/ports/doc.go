/*
Package ports defines the interfaces between the automata core and its adapters.

These interfaces decouple the machines from external implementations, allowing
sessions and definitions to live in various backends.

# Key Interfaces

  - RunStore: Responsible for persisting and loading session runs (memory, file, Redis).
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - DefinitionSource: Lists and reads automaton definitions (directory, memory).
  - Catalog: Resolves automaton names into machines for the HTTP, MCP and CLI adapters.
*/
package ports
