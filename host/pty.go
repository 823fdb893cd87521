// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package host

import (
	"os"

	"github.com/creack/pty"
)

// PTY is a pseudo-terminal pair: Master is the controlling end an embedding
// host reads/writes to drive the session, Slave is the end to hand a
// spawned shell or command as its stdin/stdout/stderr.
//
// This is the optional PTY session the host environment can provide
// alongside plain pipes; a [shell.Session] never requires one, since most
// embedders are happy wiring plain [io.Reader]/[io.Writer] streams instead.
type PTY struct {
	Master *os.File
	Slave  *os.File
}

// OpenPTY opens a new pseudo-terminal pair. Callers are responsible for
// closing both Master and Slave once the session using them ends.
func OpenPTY(log Logger) (*PTY, error) {
	master, slave, err := pty.Open()
	if err != nil {
		log.PTYFailed(err)
		return nil, err
	}
	return &PTY{Master: master, Slave: slave}, nil
}

// Resize reports the PTY's window size change to the slave end, the same
// way a terminal emulator does on a SIGWINCH. Shell code watching $COLUMNS/
// $LINES picks this up the next time it checks the terminal size.
func (p *PTY) Resize(cols, rows int) error {
	return pty.Setsize(p.Slave, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Close closes both ends of the pair. It is safe to call after either end
// has already been closed individually.
func (p *PTY) Close() error {
	err := p.Master.Close()
	if slaveErr := p.Slave.Close(); err == nil {
		err = slaveErr
	}
	return err
}
