// Package loop drives a simulation: it polls the control link, steps the
// bodies, emits a frame and sends it, once per tick.
//
// A [Runner] is either Running or Terminated. Receiving [EndMessage] on the
// link moves it to Terminated, which is final. Any numerical or channel
// error ends [Runner.Run] with that error and no further frames are sent.
//
// # Example
//
//	r, _ := loop.New(bodies, integ, frame.NewEmitter(nbody.AU), link, loop.DefaultConfig(), logger)
//	if err := r.Run(ctx); err != nil {
//	    logger.Fatal("simulation failed", "err", err)
//	}
//
// # Thread Safety
//
// A Runner must be driven by a single goroutine. The link is the only value
// shared with other goroutines.
package loop
