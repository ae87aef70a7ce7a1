package gpio

import (
	"github.com/warthog618/go-gpiocdev"
)

// CharDev is the Provider backed by the Linux GPIO character device.
// Chip names are the kernel names ("gpiochip0") or full /dev paths.
type CharDev struct{}

// OpenChip implements Provider.
func (CharDev) OpenChip(name string) (Chip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer("gpiobridge"))
	if err != nil {
		return nil, err
	}
	return cdevChip{chip: chip}, nil
}

type cdevChip struct {
	chip *gpiocdev.Chip
}

// RequestOutputLine requests the pin as an output line at the request
// default (inactive); it is not driven again until the first Set.
func (c cdevChip) RequestOutputLine(offset int) (Line, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsOutput())
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (c cdevChip) Close() error {
	return c.chip.Close()
}
