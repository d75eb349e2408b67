package cmd

import (
	"fmt"
	"io"
	"strings"
)

// progressBar is a simple terminal progress bar that writes to stderr.
type progressBar struct {
	total       int
	current     int
	width       int
	description string
	item        string
	writer      io.Writer
}

// newProgressBar creates a new progress bar.
func newProgressBar(total int, description string, writer io.Writer) *progressBar {
	return &progressBar{
		total:       total,
		width:       30,
		description: description,
		writer:      writer,
	}
}

// Set moves the bar to n and names the item just finished.
func (p *progressBar) Set(n int, item string) {
	p.current = min(n, p.total)
	p.item = item
	p.render()
}

// Finish ends the bar's line. A bar that stopped early keeps its position.
func (p *progressBar) Finish() {
	fmt.Fprintln(p.writer)
}

// render draws the progress bar to the writer using carriage return.
func (p *progressBar) render() {
	if p.total <= 0 {
		return
	}

	filled := p.current * p.width / p.total
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", p.width-filled)
	fmt.Fprintf(p.writer, "\r%s [%s] %d/%d %s\x1b[K", p.description, bar, p.current, p.total, p.item)
}
