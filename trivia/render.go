package trivia

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/types"
)

// CustomIDPrefix marks button custom IDs owned by the trivia engine.
const CustomIDPrefix = "trivia:"

const (
	colorQuestion = 0x3498db
	colorCorrect  = 0x2ecc71
	colorNobody   = 0xe74c3c
	colorFinal    = 0xf1c40f
	colorStopped  = 0xe67e22

	// discord limits
	maxButtonLabel = 80
	maxFieldValue  = 1024
)

const (
	msgAlreadyRunning  = "❌ A trivia game is already running in this server. Use `/trivia stop` to end it first."
	msgMissingCategory = "❌ Please choose a category to start a trivia game."
	msgNoActiveGame    = "❌ No active trivia game found."
	msgGenerationError = "⚠️ Error: Failed to generate trivia questions. Please try again later."
	msgSkipQuestion    = "⚠️ Error: Failed to parse a trivia question. Skipping this round."
	msgGameOver        = "🎉 Trivia game over! Thanks for playing!"
	msgNoScores        = "No scores yet!"
	msgShuttingDown    = "❌ The bot is restarting, please start a new game in a moment."
)

// CustomID builds the button ID for label in a round.
func CustomID(roundID, label string) string {
	return CustomIDPrefix + roundID + ":" + label
}

// ParseCustomID splits a trivia button ID into its round and label.
func ParseCustomID(id string) (roundID, label string, ok bool) {
	rest, found := strings.CutPrefix(id, CustomIDPrefix)
	if !found {
		return "", "", false
	}
	roundID, label, found = strings.Cut(rest, ":")
	if !found || roundID == "" || types.LabelIndex(label) < 0 {
		return "", "", false
	}
	return roundID, label, true
}

func announceMessage(s *Session) string {
	return fmt.Sprintf("🎉 %s has started a %s %s trivia game! First question in %d seconds...",
		s.StartedBy, s.Speed.Label(), s.Category, int(s.timings.StartDelay.Seconds()))
}

func questionEmbed(r *round, answers int) *discordgo.MessageEmbed {
	var b strings.Builder
	b.WriteString(r.question.Text)
	b.WriteString("\n")
	for i := range r.question.Options {
		fmt.Fprintf(&b, "\n**%s**", r.question.Option(types.OptionLabels[i]))
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Question %d of %d", r.number, r.total),
		Description: b.String(),
		Color:       colorQuestion,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Category: %s | Time: %d seconds | 👥 Total answers: %d",
				r.category, int(r.window.Seconds()), answers),
		},
	}
}

func answerButtons(r *round) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(types.OptionLabels))
	for _, label := range types.OptionLabels {
		buttons = append(buttons, discordgo.Button{
			Label:    truncate(r.question.Option(label), maxButtonLabel),
			Style:    discordgo.PrimaryButton,
			CustomID: CustomID(r.id, label),
		})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

// revealButtons disables the controls, marks the correct answer green and any
// picked wrong answers red.
func revealButtons(r *round, answers []Answer) []discordgo.MessageComponent {
	picked := chosen(answers)
	buttons := make([]discordgo.MessageComponent, 0, len(types.OptionLabels))
	for _, label := range types.OptionLabels {
		btn := discordgo.Button{
			Label:    truncate(r.question.Option(label), maxButtonLabel),
			Style:    discordgo.SecondaryButton,
			CustomID: CustomID(r.id, label),
			Disabled: true,
		}
		switch {
		case label == r.question.CorrectLabel:
			btn.Style = discordgo.SuccessButton
			btn.Emoji = &discordgo.ComponentEmoji{Name: "✅"}
		case picked[label]:
			btn.Style = discordgo.DangerButton
			btn.Emoji = &discordgo.ComponentEmoji{Name: "❌"}
		}
		buttons = append(buttons, btn)
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func closedQuestionEmbed(r *round, answers []Answer) *discordgo.MessageEmbed {
	embed := questionEmbed(r, len(answers))
	if len(answers) == 0 {
		embed.Color = colorNobody
		embed.Footer.Text = "Time's up! | No one answered!"
		return embed
	}
	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	embed.Footer.Text = fmt.Sprintf("Time's up! | 👥 Total: %d | ✅ Correct: %d | ❌ Wrong: %d",
		len(answers), correct, len(answers)-correct)
	return embed
}

func resultsEmbed(r *round, answers []Answer) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Question %d Results", r.number),
		Description: fmt.Sprintf("**Question:** %s\n**Correct Answer:** %s",
			r.question.Text, r.question.CorrectOption()),
		Color: colorCorrect,
	}
	if len(answers) == 0 {
		embed.Color = colorNobody
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "No Answers",
			Value: "No one answered this question!",
		}}
		return embed
	}

	var right, wrong []string
	for _, a := range answers {
		if a.Correct {
			right = append(right, a.Name)
		} else {
			wrong = append(wrong, fmt.Sprintf("%s (%s)", a.Name, a.Label))
		}
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Correct Answers", Value: listOrNone(right), Inline: true},
		{Name: "Wrong Answers", Value: listOrNone(wrong), Inline: true},
	}
	return embed
}

func stoppedEmbed(s *Session, snap Snapshot) *discordgo.MessageEmbed {
	var status string
	switch snap.State {
	case StateInitializing:
		status = "The game was stopped before the first question."
	case StateGenerating:
		status = "The game was stopped while questions were being generated."
	default:
		status = fmt.Sprintf("The game was stopped during question %d of %d.", snap.QuestionsAsked, snap.MaxQuestions)
	}

	lines := make([]string, 0, len(snap.Players))
	for _, p := range snap.Players {
		lines = append(lines, fmt.Sprintf("%s: ✅ %d | ❌ %d", p.Name, p.Correct, p.Wrong))
	}
	scores := "No scores yet."
	if len(lines) > 0 {
		scores = truncate(strings.Join(lines, "\n"), maxFieldValue)
	}

	return &discordgo.MessageEmbed{
		Title:       "🎮 Trivia Game Stopped",
		Description: fmt.Sprintf("%s trivia: %s", s.Category, status),
		Color:       colorStopped,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Current Scores", Value: scores},
		},
	}
}

// finalEmbed ranks players with at least one correct answer and lists the rest separately.
func finalEmbed(s *Session, snap Snapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🎮 Final Trivia Results",
		Description: fmt.Sprintf("Category: %s", s.Category),
		Color:       colorFinal,
	}

	var ranked, wrongOnly []string
	for _, p := range snap.Players {
		if p.Correct > 0 {
			ranked = append(ranked, fmt.Sprintf("%d. %s: ✅ %d | ❌ %d", len(ranked)+1, p.Name, p.Correct, p.Wrong))
		} else {
			wrongOnly = append(wrongOnly, fmt.Sprintf("%s: ❌ %d", p.Name, p.Wrong))
		}
	}

	if len(ranked) == 0 && len(wrongOnly) == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "No Scores",
			Value: "No one participated in this game.",
		}}
		return embed
	}
	if len(ranked) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🏆 Final Scores",
			Value: truncate(strings.Join(ranked, "\n"), maxFieldValue),
		})
	}
	if len(wrongOnly) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "❌ Wrong Answers Only",
			Value: truncate(strings.Join(wrongOnly, "\n"), maxFieldValue),
		})
	}
	return embed
}

// leaderboardMessage renders the global ranking as a fixed width table.
func leaderboardMessage(entries []types.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "📊 **Trivia Leaderboard:**\n" + msgNoScores
	}
	var b strings.Builder
	b.WriteString("📊 **Trivia Leaderboard:**\n```\n")
	fmt.Fprintf(&b, "%-5s %-20s %7s %5s\n", "Rank", "User", "Correct", "Wrong")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 40))
	for i, e := range entries {
		name := e.Username
		if name == "" {
			name = e.UserID
		}
		fmt.Fprintf(&b, "%-5d %-20s %7d %5d\n", i+1, truncate(name, 20), e.TotalCorrect, e.TotalWrong)
	}
	b.WriteString("```")
	return b.String()
}

func statsMessage(name string, stats types.UserStats) string {
	return fmt.Sprintf("📊 **%s's Trivia Stats:**\n✅ Correct Answers: %d\n❌ Wrong Answers: %d",
		name, stats.TotalCorrect, stats.TotalWrong)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return truncate(strings.Join(items, ", "), maxFieldValue)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
