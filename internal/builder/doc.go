/*
Package builder turns a format-agnostic circuit model (see the 'config'
package) into a live *session.Session ready to be ticked.

Construction is a multi-phase process:

 1. Device Creation: every device definition is resolved to a device kind,
    its body is created with default settings and each attribute from the
    circuit file is decoded onto it. The result is validated and added to
    the session, which assigns it a graph id.

 2. Wiring: each wire's endpoints are resolved from `kind.name` addresses to
    ids and connected through the session, so the full connection policy
    applies: sources must have an output, targets must accept another input
    and no wire may close a cycle.

 3. Transport: the tempo and pause state from the transport definition are
    applied to the session.

The returned *Circuit keeps the mapping between addresses and ids so callers
can report on devices by the names used in the circuit file.
*/
package builder
