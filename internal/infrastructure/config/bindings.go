package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Broker is the MQTT broker address from the bindings file.
type Broker struct {
	Host string
	Port int
}

// GPIOBinding associates a link identifier with one hardware output line.
type GPIOBinding struct {
	Link string
	Chip string
	Pin  int
}

// CommandBinding associates a link identifier with a managed executable.
// A oneshot command is waited for synchronously immediately after starting
// instead of being left running until an OFF message arrives.
type CommandBinding struct {
	Link    string
	Command string
	Oneshot bool
}

// Subscription associates a topic pattern with a link identifier.
// The pattern is matched against delivered topics by prefix, not by MQTT
// wildcard semantics. Invert flips the decoded payload value before it is
// applied to the linked bindings.
type Subscription struct {
	Topic  string
	Link   string
	QoS    int
	Invert bool
}

// Bindings is the static mapping loaded once at startup. The three tables
// are never mutated after loading.
type Bindings struct {
	Broker        Broker
	GPIOs         []GPIOBinding
	Commands      []CommandBinding
	Subscriptions []Subscription
}

// LoadBindings reads and parses the bindings file.
//
// Any malformed recognised line or unknown leading keyword is an error naming
// the offending line number. Tokens beyond the optional trailing modifier are
// ignored.
func LoadBindings(path string) (*Bindings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bindings file: %w", err)
	}
	defer f.Close()

	b := &Bindings{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "MQTT":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: MQTT requires <host> <port>", lineNo)
			}
			port, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid MQTT port %q", lineNo, fields[2])
			}
			// Last MQTT line wins.
			b.Broker = Broker{Host: fields[1], Port: port}

		case "GPIO":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: GPIO requires <linkID> <chip> <pin>", lineNo)
			}
			pin, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid GPIO pin %q", lineNo, fields[3])
			}
			b.GPIOs = append(b.GPIOs, GPIOBinding{Link: fields[1], Chip: fields[2], Pin: pin})

		case "CMD":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: CMD requires <linkID> <path>", lineNo)
			}
			cmd := CommandBinding{Link: fields[1], Command: fields[2]}
			if len(fields) > 3 && fields[3] == "oneshot" {
				cmd.Oneshot = true
			}
			b.Commands = append(b.Commands, cmd)

		case "SUB":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: SUB requires <topic> <linkID> <qos>", lineNo)
			}
			qos, err := strconv.Atoi(fields[3])
			if err != nil || qos < 0 || qos > 2 {
				return nil, fmt.Errorf("line %d: SUB qos must be 0, 1 or 2, got %q", lineNo, fields[3])
			}
			sub := Subscription{Topic: fields[1], Link: fields[2], QoS: qos}
			// The modifier is recognised by prefix, so INVERT also enables it.
			if len(fields) > 4 && strings.HasPrefix(fields[4], "INV") {
				sub.Invert = true
			}
			b.Subscriptions = append(b.Subscriptions, sub)

		default:
			return nil, fmt.Errorf("line %d: unknown keyword %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bindings file: %w", err)
	}

	if b.Broker.Host == "" {
		return nil, fmt.Errorf("%s: no MQTT broker line", path)
	}
	return b, nil
}

// LinkMatch reports whether two link identifiers join. The comparison is
// bounded by the shorter identifier, so "li" joins with "light". Link
// identifiers are free-text join keys, not foreign keys: an identifier that
// joins with nothing is legal and simply selects no bindings.
func LinkMatch(a, b string) bool {
	n := min(len(a), len(b))
	return a[:n] == b[:n]
}
