// Package forall provides functions and data structures for executing a
// single loop body under many parallel execution strategies, with
// reductions whose results do not depend on how many workers run the loop
// or how the iterations are divided among them.
//
// The loop, the set of indices it visits, and the way those indices are
// divided among workers are three separate things:
//
// forall/iterspace describes what to visit: contiguous ranges, strided
// ranges, indirection lists, and segmented (hybrid) spaces that combine
// the others.
//
// forall/policy describes how to divide the work: serial execution,
// auto, static, dynamic, guided and runtime scheduling, optionally without
// a trailing barrier, and nested team composition.
//
// forall/reduce provides sum, min, max, minloc and maxloc reduction
// parameters with an init, per-worker combine, and resolve lifecycle.
//
// forall/dispatch maps a policy and an iteration space to a registered
// handler, runs it on a target resource, and drives segmented spaces
// recursively.
//
// forall/sequential, forall/parallel and forall/offload are the executor
// backends; forall/resources wraps them as target resources and provides
// the completion token returned by every dispatch.
//
// The scheduling disciplines follow the conventions of OpenMP worksharing
// loops. The fork-join structure follows the ideas from Cilk and Threading
// Building Blocks, see http://supertech.csail.mit.edu/papers/steal.pdf for
// some theoretical background.
package forall
