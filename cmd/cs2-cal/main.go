// Command cs2-cal writes an iCalendar feed of CS2 team matches scraped from
// HLTV. It always exits with status 0.
package main

import "github.com/pfrederiksen/cs2-cal/internal/cli"

func main() {
	cli.Execute()
}
