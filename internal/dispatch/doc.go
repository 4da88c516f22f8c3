/*
Package dispatch implements the concurrent request engine.

# Overview

A Dispatcher fires a fixed batch of HTTP requests at one target and collects
the outcome of every call that completed:
  - One goroutine per configured worker, all launched up front
  - One shared HTTP client with pooling scaled to the worker count
  - One request per worker with no queueing and no retries
  - One Sample per completed call, collected over a channel

# Worker lifecycle

 1. Dispatch builds the shared client; a client that cannot be built
    (bad TLS material, non-positive timeout) aborts before any worker starts
 2. Every worker builds its request, issues it, and measures latency from
    request start until response headers arrive
 3. A completed call (any status code) sends a Sample on the results channel
 4. A failed call (connect, timeout, TLS, DNS, cancellation) logs one
    diagnostic line and sends nothing
 5. A closer goroutine closes the channel once all workers have joined;
    Dispatch drains it and returns

The returned slice therefore holds completed calls only. Callers that care
about dropped calls derive them as spec.Concurrency - len(samples).

# Cancellation

The context passed to Dispatch flows into every request, so an interrupt
aborts in-flight calls. Aborted calls count as failures; Dispatch still
joins all workers before returning.

# Example Usage

	d := dispatch.New(dispatch.Options{Verbose: true})
	samples, err := d.Dispatch(ctx, types.RequestSpec{
		URL:         "https://api.example.test/health",
		Method:      types.MethodGet,
		Timeout:     30 * time.Second,
		Concurrency: 100,
	})
	if err != nil {
		return err
	}
	rep := stats.Aggregate(samples)
*/
package dispatch
