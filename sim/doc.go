// Package sim provides the concurrency engine of the service-station simulator.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - semaphore.go: counting semaphore (cancellable acquire, bounded permits)
//   - arrival.go: the producer protocol run once per arrival
//   - worker.go: the consumer loop run once per service bay
//   - controller.go: start/pause/resume/stop, speed factor, status
//
// # Architecture
//
// A Controller owns at most one live run. Each run allocates a bounded
// ServiceQueue and four semaphores:
//   - emptySlots (initial = waiting capacity) bounds producers
//   - filledSlots (initial = 0) bounds consumers
//   - queueMutex (initial = 1) guards queue mutation
//   - baySlots (initial = bay count) guards service
//
// The run then launches one worker goroutine per bay and an arrival generator
// that spawns one goroutine per arrival. When the last arrival has been
// generated the generator becomes the completion monitor.
//
// Pause is a gate that processes consult at their check points; stop is run
// context cancellation. Every process keeps a ledger of the permits it owes
// and releases them on every exit path, including recovered panics.
//
// # Events
//
// The engine never calls into a presentation layer directly. It emits Event
// values to an EventSink; ChannelSink, Broadcaster and LogSink cover the
// console, HTTP and logging front-ends.
//
// Sub-packages:
//   - sim/trace/: run-trace records and summary statistics
package sim
