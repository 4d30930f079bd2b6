// Package dag is the topology layer of a circuit. It owns the set of device
// vertices and the polarity-tagged wires between them, and keeps two caches
// in step with every mutation: a topological ordering of all vertices and
// the full reachability relation (transitive closure).
//
// Wires that would close a cycle are rejected up front, so the graph is
// acyclic at all times. Queries (IsReachable, ContainsWire, Vertices) read
// the caches and never walk the graph, which keeps connection-legality checks
// cheap enough to run on every frame of an interactive drag. Mutations pay
// for this with a full recomputation of both caches.
package dag
