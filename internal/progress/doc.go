// Package progress carries transfer progress from download goroutines to the
// operator's terminal.
//
// Transfers publish [Event] values through the [Sink] interface. A
// [Reporter] is a Sink that only enqueues: events go onto a buffered channel
// drained by a recording goroutine, and a separate ticker goroutine renders
// the recorded state. Send never waits. When the queue is full the event is
// merged into per-task counters, and the renderer writes to the terminal
// without holding the state lock, so a blocked terminal cannot stall a
// download.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{Output: os.Stderr})
//	reporter.Track(taskID, "fares")
//	reporter.Start()
//	defer reporter.Stop()
//
//	// From the transfer goroutine
//	reporter.Send(progress.Event{TaskID: taskID, Kind: progress.TotalKnown, Bytes: size})
//	reporter.Send(progress.Event{TaskID: taskID, Kind: progress.Advanced, Bytes: n})
//
// # Output Format
//
//	[nrdp] fares       45.2% | 1.13 MB / 2.50 MB | 1.20 MB/s | ETA 1s
//	[nrdp] timetable   3.40 MB / ? | 2.10 MB/s | 2s elapsed
//
// A task whose total is unknown is shown as indeterminate, never as 0%.
package progress
