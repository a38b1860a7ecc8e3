package bootloader

// ProgressMilestone is passed to StatusReporter.Report for steps that have
// no meaningful percentage.
const ProgressMilestone = -1

// StatusReporter receives human readable progress during a firmware load.
// progress is a percentage from 0 to 100, or ProgressMilestone.
// Implementations should return quickly to avoid stalling the transfer.
type StatusReporter interface {
	Report(progress int, msg string)
}

// StatusFunc adapts a plain function to StatusReporter.
//
// Example:
//
//	sess := bootloader.NewNicknameSession(client, 0x2A,
//	    bootloader.WithStatusReporter(bootloader.StatusFunc(func(p int, msg string) {
//	        if p >= 0 {
//	            fmt.Printf("[%3d%%] %s\n", p, msg)
//	        } else {
//	            fmt.Println(msg)
//	        }
//	    })),
//	)
type StatusFunc func(progress int, msg string)

// Report calls f.
func (f StatusFunc) Report(progress int, msg string) {
	f(progress, msg)
}

type nopReporter struct{}

func (nopReporter) Report(int, string) {}

// Logger is an optional logging interface that can be provided to the session.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	sess := bootloader.NewNicknameSession(client, 0x2A, bootloader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
