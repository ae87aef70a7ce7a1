// Package supervisor manages the daemon's child processes.
//
// Each command binding is a two-state machine, Stopped or Running, driven by
// the ON/OFF messages the router dispatches. Both transitions are idempotent:
// an ON for a running command and an OFF for a stopped one are logged no-ops,
// never errors. This is what keeps repeated ON messages from forking
// duplicate children.
//
// A oneshot binding is waited for synchronously inside Apply, so a slow
// oneshot command stalls the whole dispatch path until it exits. That is
// intentional: the daemon has a single logical thread of control and no
// asynchronous cancellation. The same applies to stopping, which blocks
// without timeout until the signalled child is reaped.
//
// Binding validity (path exists, is a regular file, is executable) is
// computed once at construction; invalid bindings are logged and permanently
// excluded from dispatch.
//
// Spawning goes through the Launcher interface; ExecLauncher is the os/exec
// implementation and tests substitute fakes.
package supervisor
