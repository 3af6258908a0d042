package suica

import "fmt"

var consoleNames = map[int]string{
	0x03: "Fare Adjustment Machine",
	0x04: "Portable Terminal",
	0x05: "Bus",
	0x07: "Ticket Machine",
	0x08: "Ticket Machine",
	0x09: "Deposit/Quick Charge Machine",
	0x12: "Tokyo Monorail Ticket Machine",
	0x13: "Ticket Machine",
	0x14: "Ticket Machine",
	0x15: "Ticket Machine",
	0x16: "Turnstile",
	0x17: "Ticket Validator",
	0x18: "Ticket Booth",
	0x19: "Green Ticket Office",
	0x1a: "Ticket Gate Terminal",
	0x1b: "Mobile Phone",
	0x1c: "Connection Adjustment Machine",
	0x1d: "Transfer Adjustment Machine",
	0x1f: "Simple Deposit Machine",
	0x46: "VIEW ALTTE",
	0x48: "VIEW ALTTE",
	0xc7: "Point of Sale",
	0xc8: "Vending Machine",
}

var processNames = map[int]string{
	0x01: "Fare Exit Gate",
	0x02: "Charge",
	0x03: "Magnetic Ticket Purchase",
	0x04: "Fare Adjustment",
	0x05: "Admission Payment",
	0x06: "Booth Exit",
	0x07: "New Issue",
	0x08: "Booth Deduction",
	0x0d: "Bus (PiTaPa)",
	0x0f: "Bus (IruCa)",
	0x11: "Reissue",
	0x13: "Shinkansen Payment",
	0x14: "Entry (Auto Charge)",
	0x15: "Exit (Auto Charge)",
	0x1f: "Bus Deposit",
	0x23: "Special Ticket Purchase",
	0x46: "Merchandise Purchase",
	0x48: "Bonus Charge",
	0x49: "Register Deposit",
	0x4a: "Merchandise Cancel",
	0x4b: "Merchandise Admission",
	0x84: "Third Party Payment",
	0x85: "Third Party Admission",
	0xc6: "Merchandise Purchase (Cash)",
	0xcb: "Merchandise Admission (Cash)",
}

// ConsoleName names the terminal type that wrote a record.
func ConsoleName(console int) string {
	if n, ok := consoleNames[console&0xff]; ok {
		return n
	}
	return fmt.Sprintf("Unknown Console (%x)", console)
}

// ProcessName names the kind of transaction.
func ProcessName(process int) string {
	if n, ok := processNames[process&0xff]; ok {
		return n
	}
	return fmt.Sprintf("Unknown Process (%x)", process)
}
