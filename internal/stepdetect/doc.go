// Package stepdetect turns a stream of single-axis accelerometer samples into
// step events with a stride duration and an estimated stride length.
//
// The pipeline for every sample is:
//
//	raw -> short moving average -> long moving average (of the short output)
//	    -> crossover (rising edge = candidate step)
//	    -> cumulative power of (short - long), gated against [low, high]
//	    -> stride timer (wall clock, plausibility bounds)
//	    -> stride length model
//	    -> StepEvent to listeners, in registration order
//
// Engine runs that pipeline as one critical section per sample. Listeners are
// notified synchronously inside it by default, which makes a slow listener a
// backpressure point for the sensor producer; AsyncDispatcher moves
// notification onto a bounded queue and a worker goroutine instead.
package stepdetect
