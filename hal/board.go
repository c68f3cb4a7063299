package hal

// InputLine is a line configured to read its level.
type InputLine interface {
	IsHigh() (bool, error)
}

// OutputLine is a line configured to drive its level.
type OutputLine interface {
	SetHigh() error
	SetLow() error
}

// Serial is an open UART connection. Reads and writes block.
type Serial interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
	Close() error
}

// SerialConfig describes the lines and speed of a UART connection.
// CTS and RTS are nil when flow control is not requested.
type SerialConfig struct {
	CTS  *Line
	RTS  *Line
	TX   Line
	RX   Line
	Baud uint32
}

// Board is the hardware a host runtime drives.
type Board interface {
	// PinMap returns the supported lines.
	PinMap() *PinMap

	// Reset returns a line to its power-on configuration.
	Reset(Line) error

	// Input configures a line for reading.
	Input(Line) (InputLine, error)

	// Output configures a line for driving.
	Output(Line) (OutputLine, error)

	// OpenSerial opens the board UART.
	OpenSerial(SerialConfig) (Serial, error)

	// Delay blocks for ms milliseconds.
	Delay(ms uint32)
}
