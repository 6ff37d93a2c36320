package tcp

import "errors"

var ErrInputTooLarge = errors.New("input exceeds the connection buffer limit")
