// this file maps incoming chat messages to voting engine calls
package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
)

const triggerPrefix = "!vote"

const helpText = "**Available poll commands:**\n" +
	"- `!vote create -q=\"Question\" -c=\"Option 1, Option 2\"` - create a new poll\n" +
	"- `!vote vote <ID> <option number>` - vote for an option\n" +
	"- `!vote results <ID>` - show results\n" +
	"- `!vote end <ID>` - close a poll (creator only)\n" +
	"- `!vote delete <ID>` - delete a poll (creator only)"

type Dispatcher struct {
	service VoteService
}

func NewDispatcher(service VoteService) *Dispatcher {
	return &Dispatcher{service: service}
}

// HandleMessage turns a chat message into a reply. The second return value
// is false when the message is not addressed to the bot at all.
func (d *Dispatcher) HandleMessage(message, channelID, userID string) (string, bool) {
	if !strings.HasPrefix(message, triggerPrefix) {
		return "", false
	}

	parts := strings.Fields(message)
	if len(parts) < 2 {
		return helpText, true
	}

	command := strings.ToLower(parts[1])
	args := parts[2:]

	switch command {
	case "create":
		log.Println("create poll command by user", userID)
		return d.handleCreate(args, channelID, userID), true
	case "vote":
		log.Println("vote command by user", userID)
		return d.handleVote(args, userID), true
	case "results":
		log.Println("results command by user", userID)
		return d.handleResults(args), true
	case "end":
		log.Println("end poll command by user", userID)
		return d.handleEnd(args, userID), true
	case "delete":
		log.Println("delete poll command by user", userID)
		return d.handleDelete(args, userID), true
	default:
		log.Println("help command by user", userID)
		return helpText, true
	}
}

func (d *Dispatcher) handleCreate(args []string, channelID, userID string) string {
	parsed := ParseArguments(args)
	question := parsed["q"]

	var choices []string
	if raw, ok := parsed["c"]; ok {
		choices = SplitChoices(raw)
	}

	poll, err := d.service.CreatePoll(question, choices, userID, channelID)
	if err != nil {
		log.Println("error creating poll:", err)
		return createErrorText(err)
	}
	log.Println("created poll", poll.ID, "by user", userID)

	var b strings.Builder
	fmt.Fprintf(&b, "✅ **Poll created!** (ID: `%s`)\n\n", poll.ID)
	fmt.Fprintf(&b, "**Question:** %s\n\n**Options:**\n", poll.Question)
	for i, opt := range poll.Options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt.Text)
	}
	fmt.Fprintf(&b, "\nTo vote: `!vote vote %s <option number>`", poll.ID)
	return b.String()
}

func createErrorText(err error) string {
	return fmt.Sprintf(
		"❌ Could not create the poll:\n%s\n\n"+
			"**Expected format:**\n"+
			"`!vote create -q=\"Your question\" -c=\"Option 1, Option 2, Option 3\"`\n\n"+
			"**Example:**\n"+
			"`!vote create -q=\"Which language is best?\" -c=\"Python, Go, C++, JavaScript\"`",
		err)
}

func (d *Dispatcher) handleVote(args []string, userID string) string {
	if len(args) != 2 {
		return "Usage: `!vote vote <ID> <option number>`"
	}

	pollID := args[0]
	option, convErr := strconv.Atoi(args[1])
	if convErr != nil {
		// a non-numeric option can never match a real one
		option = 0
	}

	err := d.service.CastVote(pollID, option, userID)
	switch {
	case err == nil:
		return "✅ Your vote has been counted!"
	case errors.Is(err, ErrPollNotFound):
		return "❌ Poll not found"
	case errors.Is(err, ErrPollEnded):
		return "❌ This poll is already closed"
	case errors.Is(err, ErrAlreadyVoted):
		poll, getErr := d.service.GetPoll(pollID)
		if getErr != nil {
			return "❌ You have already voted in this poll!"
		}
		return fmt.Sprintf("❌ You have already voted in this poll!\nPoll: *%s*\nID: `%s`",
			poll.Question, pollID)
	case errors.Is(err, ErrInvalidOption):
		poll, getErr := d.service.GetPoll(pollID)
		if getErr != nil {
			return "❌ Poll not found"
		}
		var b strings.Builder
		b.WriteString("❌ Invalid option!\nAvailable options:\n")
		for i, opt := range poll.Options {
			fmt.Fprintf(&b, "%d. %s\n", i+1, opt.Text)
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		log.Println("error processing vote:", err)
		return fmt.Sprintf("⚠️ Something went wrong: %s", err)
	}
}

func (d *Dispatcher) handleResults(args []string) string {
	if len(args) != 1 {
		return "Usage: `!vote results <ID>`"
	}

	results, err := d.service.Results(args[0])
	switch {
	case errors.Is(err, ErrPollNotFound):
		return "❌ Poll not found"
	case err != nil:
		log.Println("error fetching results:", err)
		return fmt.Sprintf("⚠️ Something went wrong: %s", err)
	}

	return renderResults(results)
}

func (d *Dispatcher) handleEnd(args []string, userID string) string {
	if len(args) != 1 {
		return "Usage: `!vote end <ID>`"
	}

	results, err := d.service.EndPoll(args[0], userID)
	switch {
	case errors.Is(err, ErrPollNotFound):
		return "❌ Poll not found"
	case errors.Is(err, ErrNotCreator):
		return "❌ Only the creator can end this poll"
	case err != nil:
		log.Println("error ending poll:", err)
		return fmt.Sprintf("⚠️ Something went wrong: %s", err)
	}

	return renderResults(results) +
		fmt.Sprintf("\n\nPoll `%s` is closed. New votes are no longer accepted.", results.PollID)
}

func (d *Dispatcher) handleDelete(args []string, userID string) string {
	if len(args) != 1 {
		return "Usage: `!vote delete <ID>`"
	}

	pollID := args[0]
	err := d.service.DeletePoll(pollID, userID)
	switch {
	case errors.Is(err, ErrPollNotFound):
		return "❌ Poll not found"
	case errors.Is(err, ErrNotCreator):
		return "❌ Only the creator can delete this poll"
	case err != nil:
		log.Println("error deleting poll:", err)
		return fmt.Sprintf("⚠️ Something went wrong: %s", err)
	}

	return fmt.Sprintf("Poll `%s` deleted. All its data has been removed.", pollID)
}

func renderResults(results *PollResults) string {
	status := "🟢 Active"
	if !results.IsActive {
		status = "🔴 Closed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Poll results**\n")
	fmt.Fprintf(&b, "**ID:** `%s` %s\n", results.PollID, status)
	fmt.Fprintf(&b, "**Question:** %s\n", results.Question)
	fmt.Fprintf(&b, "**Total votes:** %d\n", results.TotalVotes)

	for _, opt := range results.Ranked {
		bar := strings.Repeat("█", int(opt.Percent/5))
		fmt.Fprintf(&b, "\n%d. **%s**\n    %s %d (%.1f%%)", opt.Number, opt.Text, bar, opt.Count, opt.Percent)
	}

	return b.String()
}
