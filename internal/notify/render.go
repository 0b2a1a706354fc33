package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/gigboard/backend/internal/gigs"
	"github.com/gigboard/backend/internal/models"
)

const (
	dateLayout     = "Mon 2 Jan 2006"
	dateTimeLayout = "Mon 2 Jan 2006 15:04"
)

// Message is a rendered mail ready for the queue.
type Message struct {
	Subject string
	Body    string
}

// localize resolves the zone a recipient sees times in: their own zone
// when valid, the organization's otherwise, UTC as the last resort.
func localize(t time.Time, recipientTZ, orgTZ string) time.Time {
	for _, name := range []string{recipientTZ, orgTZ} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return t.In(loc)
		}
	}
	return t.UTC()
}

func formatWhen(g *models.Gig, recipientTZ, orgTZ string) string {
	if g.IsFullDay {
		return localize(g.Date, recipientTZ, orgTZ).Format(dateLayout) + " (all day)"
	}
	var b strings.Builder
	b.WriteString(localize(g.Date, recipientTZ, orgTZ).Format(dateTimeLayout))
	if g.SetDate != nil {
		b.WriteString(", set " + localize(*g.SetDate, recipientTZ, orgTZ).Format("15:04"))
	}
	if g.EndDate != nil {
		b.WriteString(", ends " + localize(*g.EndDate, recipientTZ, orgTZ).Format("15:04"))
	}
	return b.String()
}

// gigBlock renders the full gig details section shared by every
// template. Empty fields are skipped.
func gigBlock(g *models.Gig, recipientTZ, orgTZ string) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	line("Status", gigStatusLabel(g.Status))
	line("When", formatWhen(g, recipientTZ, orgTZ))
	line("Date notes", g.DateNotes)
	line("Address", g.Address)
	line("Details", g.Details)
	line("What to wear", g.Dress)
	line("Post-gig plans", g.PostGig)
	return b.String()
}

func gigStatusLabel(s models.GigStatus) string {
	switch s {
	case models.GigConfirmed:
		return "Confirmed!"
	case models.GigCancelled:
		return "Cancelled!"
	case models.GigAsking:
		return "Asking"
	default:
		return "Unconfirmed"
	}
}

func greeting(name string) string {
	if name == "" {
		return "Hi,"
	}
	return "Hi " + name + ","
}

func answerFooter(baseURL string, rec Recipient) string {
	return fmt.Sprintf("Can you make it? Reply here: %s/answer/%s\n", baseURL, rec.PlanID)
}

// Renderer builds notification mail from gig state. BaseURL is the
// public address answer links point at.
type Renderer struct {
	BaseURL string
}

// GigCreated renders the announcement for a new gig. When the gig was
// created as a recurring series, every call date is listed.
func (rn *Renderer) GigCreated(g *models.Gig, orgName, orgTZ string, dates []time.Time, rec Recipient) Message {
	subject := fmt.Sprintf("%s: new gig: %s", orgName, g.Title)
	var b strings.Builder
	b.WriteString(greeting(rec.FullName) + "\n\n")
	fmt.Fprintf(&b, "A new gig has been added to %s:\n\n", orgName)
	fmt.Fprintf(&b, "%s\n", g.Title)
	b.WriteString(gigBlock(g, rec.Timezone, orgTZ))
	if len(dates) > 1 {
		b.WriteString("\nThis gig repeats on:\n")
		for _, d := range dates {
			b.WriteString("  " + localize(d, rec.Timezone, orgTZ).Format(dateLayout) + "\n")
		}
	}
	b.WriteString("\n" + answerFooter(rn.BaseURL, rec))
	return Message{Subject: subject, Body: b.String()}
}

// GigEdited renders the change notification: the tracked field changes
// first, then the full current details. A "(See below.)" entry points
// the reader to the details block rather than inlining a long field.
func (rn *Renderer) GigEdited(g *models.Gig, orgName, orgTZ string, changes []gigs.Change, rec Recipient) Message {
	subject := fmt.Sprintf("%s: gig edited: %s", orgName, g.Title)
	var b strings.Builder
	b.WriteString(greeting(rec.FullName) + "\n\n")
	fmt.Fprintf(&b, "The gig \"%s\" in %s has changed:\n\n", g.Title, orgName)
	for _, ch := range changes {
		if ch.NewValue == gigs.SeeBelow {
			fmt.Fprintf(&b, "%s: %s\n", ch.Field, gigs.SeeBelow)
			continue
		}
		if ch.OldValue != "" {
			fmt.Fprintf(&b, "%s: %s (was %s)\n", ch.Field, ch.NewValue, ch.OldValue)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", ch.Field, ch.NewValue)
		}
	}
	b.WriteString("\nCurrent details:\n\n")
	fmt.Fprintf(&b, "%s\n", g.Title)
	b.WriteString(gigBlock(g, rec.Timezone, orgTZ))
	b.WriteString("\n" + answerFooter(rn.BaseURL, rec))
	return Message{Subject: subject, Body: b.String()}
}

// Reminder renders the nudge sent to members who have not answered yet.
func (rn *Renderer) Reminder(g *models.Gig, orgName, orgTZ string, rec Recipient) Message {
	subject := fmt.Sprintf("%s: reminder: %s", orgName, g.Title)
	var b strings.Builder
	b.WriteString(greeting(rec.FullName) + "\n\n")
	fmt.Fprintf(&b, "You haven't answered yet for \"%s\" (%s):\n\n",
		g.Title, localize(g.Date, rec.Timezone, orgTZ).Format(dateLayout))
	b.WriteString(gigBlock(g, rec.Timezone, orgTZ))
	b.WriteString("\n" + answerFooter(rn.BaseURL, rec))
	return Message{Subject: subject, Body: b.String()}
}

// SnoozeReminder renders the follow-up sent when a "Don't Know" snooze
// runs out.
func (rn *Renderer) SnoozeReminder(it SnoozeItem) Message {
	subject := fmt.Sprintf("Still don't know? %s", it.GigTitle)
	var b strings.Builder
	b.WriteString(greeting(it.FullName) + "\n\n")
	fmt.Fprintf(&b, "You answered \"Don't know\" for \"%s\" on %s. The gig is getting closer - can you make it now?\n",
		it.GigTitle, localize(it.GigDate, it.Timezone, it.OrgTimezone).Format(dateLayout))
	b.WriteString("\n" + answerFooter(rn.BaseURL, it.Recipient))
	return Message{Subject: subject, Body: b.String()}
}

// WatcherAlert renders one combined mail per watcher covering every
// answer change on gigs they watch since the last sweep.
func (rn *Renderer) WatcherAlert(items []WatchItem) Message {
	var b strings.Builder
	first := items[0]
	b.WriteString(greeting(first.WatcherName) + "\n\n")
	b.WriteString("Answers changed on gigs you watch:\n\n")
	var lastGig string
	for _, it := range items {
		if it.GigTitle != lastGig {
			fmt.Fprintf(&b, "%s (%s):\n", it.GigTitle,
				localize(it.GigDate, it.WatcherTZ, it.OrgTimezone).Format(dateLayout))
			lastGig = it.GigTitle
		}
		fmt.Fprintf(&b, "  %s: %s\n", it.MemberName, it.PlanStatus.Label())
	}
	return Message{Subject: "Gig answers changed", Body: b.String()}
}
