/*
Package session implements incremental runs of machines across calls.

A session binds an ID to a machine name and the state the machine stands in.
The Manager loads the run, restores a fresh machine to that state, steps the
new input and saves the run back, serializing feeds of the same session with
local locks and, across replicas, an optional distributed locker.
*/
package session
