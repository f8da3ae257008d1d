package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/cs2-cal/internal/calendar"
	"github.com/pfrederiksen/cs2-cal/internal/config"
	"github.com/pfrederiksen/cs2-cal/internal/match"
)

func main() {
	settings := config.Defaults()
	now := time.Now()
	kickoff := now.Add(48 * time.Hour).Truncate(time.Hour)
	played := now.Add(-24 * time.Hour).Truncate(time.Hour)

	builder := &match.Builder{
		Location:   settings.Location,
		Horizon:    settings.Horizon,
		MaxResults: settings.PastResults,
	}

	// Sample events covering every kind of entry the calendar can hold
	events := builder.Build([]match.Record{{
		Time:       &kickoff,
		Teams:      []string{"FURIA", "MIBR"},
		Tournament: "IEM Rio, Group A; Decider",
		SourceURL:  "https://www.hltv.org/matches/2380001/furia-vs-mibr-iem-rio",
	}}, match.RoleUpcoming)
	events = append(events, builder.Build([]match.Record{{
		Time:       &played,
		Teams:      []string{"FURIA", "paiN"},
		Score:      "16-9",
		Tournament: "CCT South America",
		SourceURL:  "https://www.hltv.org/matches/2370001/furia-vs-pain",
	}}, match.RoleResults)...)
	events = append(events, builder.Info(), builder.Failure(errors.New("sample failure placeholder")))
	calendar.SortEvents(events)

	icsContent := calendar.NewEncoder().Encode(&calendar.Calendar{
		Title:       settings.CalendarName,
		Description: "Sample calendar",
		GeneratedAt: now,
		Location:    settings.Location,
		Events:      events,
	})

	// Write to file (owner read/write only)
	filename := "test-cs2.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
