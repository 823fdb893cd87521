// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// +build !windows

package host

import (
	"bufio"
	"testing"
)

func TestPTYRoundTrip(t *testing.T) {
	t.Parallel()

	p, err := OpenPTY(Logger{})
	if err != nil {
		t.Fatalf("OpenPTY: %v", err)
	}
	defer p.Close()

	if _, err := p.Slave.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write to slave: %v", err)
	}

	r := bufio.NewReader(p.Master)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read from master: %v", err)
	}
	// The terminal's default output processing turns "\n" into "\r\n".
	if line != "hello\r\n" {
		t.Fatalf("got %q, want %q", line, "hello\r\n")
	}
}
