package chat

import (
	"strings"

	"github.com/hasnainrazaa03/jarvis/internal/topics"
)

const (
	// MaxHistory bounds how many messages are considered per turn.
	MaxHistory = 10
	// recentWindow is how far back the recent-questions summary looks.
	recentWindow = 5
)

// TrimHistory keeps the opening message plus the newest max-1 messages when
// h is longer than max.
func TrimHistory(h []Message, max int) []Message {
	if max <= 0 || len(h) <= max {
		return h
	}
	out := make([]Message, 0, max)
	out = append(out, h[0])
	return append(out, h[len(h)-(max-1):]...)
}

// LatestUserMessage returns the index and content of the last user message.
func LatestUserMessage(h []Message) (int, string, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role == RoleUser {
			return i, h[i].Content, true
		}
	}
	return -1, "", false
}

// RecentQuestions summarises the user messages among the last five entries
// of prior, the history before the current question.
func RecentQuestions(prior []Message) string {
	if len(prior) <= 1 {
		return ""
	}
	if len(prior) > recentWindow {
		prior = prior[len(prior)-recentWindow:]
	}
	var qs []string
	for _, m := range prior {
		if m.Role == RoleUser {
			qs = append(qs, m.Content)
		}
	}
	if len(qs) == 0 {
		return ""
	}
	return "User's recent questions: " + strings.Join(qs, "; ")
}

// Stats describes a conversation for the chat widget header.
type Stats struct {
	MessageCount  int      `json:"message_count"`
	UserQuestions int      `json:"user_questions"`
	Topics        []string `json:"topics"`
}

func HistoryStats(h []Message) Stats {
	var questions []string
	for _, m := range h {
		if m.Role == RoleUser {
			questions = append(questions, m.Content)
		}
	}
	return Stats{
		MessageCount:  len(h),
		UserQuestions: len(questions),
		Topics:        topics.Strings(topics.Default.FromTexts(questions)),
	}
}
