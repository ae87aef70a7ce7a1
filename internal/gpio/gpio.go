package gpio

// Provider opens GPIO chips by name.
type Provider interface {
	OpenChip(name string) (Chip, error)
}

// Chip is an opened GPIO chip that can hand out output lines.
type Chip interface {
	RequestOutputLine(offset int) (Line, error)
	Close() error
}

// Line is a requested output line.
type Line interface {
	SetValue(value int) error
	Close() error
}

// Logger defines the logging interface for the line table.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
