// Package compute provides CPU worker-pool parallelism for the routing
// matrix recompute (C6). The per-block audio schedulers (C9/C10) do not use
// it; they run one long-lived goroutine per channel instead.
//
// There is deliberately no GPU backend here: the calculation engine runs
// inside whatever process hosts the renderer (a DAW, a standalone app), and
// that process has no business pulling in a GPU/windowing stack just to
// multiply out an N×M coefficient matrix a few hundred times a second.
// ParallelFor's chunking heuristic is the same one the teacher project used
// for its N-body CPU backend, generalized from "divide particles" to
// "divide any index range".
package compute
