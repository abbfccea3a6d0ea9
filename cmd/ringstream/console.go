package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/philipswan/TetheredRing-sub000/internal/control"
)

// console reads one command per line from r and writes each result to w
// as JSON. It returns when r is exhausted or ctx is done.
func console(ctx context.Context, r io.Reader, w io.Writer, d *control.Dispatcher, log *slog.Logger) {
	sc := bufio.NewScanner(r)
	enc := json.NewEncoder(w)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		e, ok := control.ParseLine(sc.Text(), time.Now())
		if !ok {
			continue
		}
		result, err := d.Dispatch(e)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		if result == nil {
			continue
		}
		if err := enc.Encode(result); err != nil {
			log.Error("Writing command result", "command", e.Command, "error", err)
		}
	}
	if err := sc.Err(); err != nil {
		log.Error("Reading console", "error", err)
	}
}
