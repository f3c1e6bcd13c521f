// Package monitor samples GPU utilization, keeps a rolling history per GPU
// slot and draws that history as a scrolling bar chart.
//
// # Pipeline
//
// A tick runs, in order, on the Scheduler's goroutine:
//
//  1. Sampler.Sample runs the source (rocm-smi, nvidia-smi, a custom
//     command, or NVML) and returns one Batch: a reading per slot, or
//     Unavailable.
//  2. History.Append writes the available readings at the shared cursor and
//     moves the cursor for every slot at once.
//  3. Graph signals Redraw.
//
// Render and FormatTooltip are pure functions over a History snapshot and
// the last Batch. Graph ties the pieces together and gives a host four
// lifecycle calls: Init, OnResize, OnReconfigure and Shutdown.
//
// # Failure handling
//
// Nothing in the pipeline returns an error. A source that can't start, a
// line that doesn't parse, or fewer devices than slots all end up as
// Unavailable slots. A batch with no available slot at all doesn't count as
// a tick, so a dead source leaves the graph frozen instead of padding it.
//
// # Terminal host
//
// Model is a Bubble Tea host for a Graph. It draws the canvas with
// half-block characters, shows the tooltip while the mouse is over the
// graph, and maps keys to Graph reconfiguration:
//
//	q, Ctrl+C   - Quit
//	+ / -       - Sampling interval up / down by 500ms
//	1-9         - Toggle GPU slot
//	r           - Sample now
//	t           - Pin the tooltip
//	?           - Toggle help overlay
package monitor
