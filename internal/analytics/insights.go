package analytics

import (
	"fmt"
	"sort"

	"github.com/hasnainrazaa03/jarvis/internal/topics"
)

// RecentLimit is how many interactions the dashboard reads.
const RecentLimit = 1000

type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type EntityCount struct {
	Entity string `json:"entity"`
	Count  int    `json:"count"`
}

// Insights summarizes a batch of interactions for the dashboard.
type Insights struct {
	TotalSessions   int            `json:"totalSessions"`
	TotalQuestions  int            `json:"totalQuestions"`
	TopicBreakdown  map[string]int `json:"topicBreakdown"`
	MostAskedTopics []TopicCount   `json:"mostAskedTopics"`
	EntityMentions  []EntityCount  `json:"entityMentions"`
	HourlyBreakdown map[string]int `json:"hourlyBreakdown"`
}

// Summarize tags each question again with the current keyword tables, so
// stored records without topics are still counted. Hours are UTC.
func Summarize(records []Interaction) Insights {
	out := Insights{
		TopicBreakdown:  map[string]int{},
		MostAskedTopics: []TopicCount{},
		EntityMentions:  []EntityCount{},
		HourlyBreakdown: map[string]int{},
	}
	if len(records) == 0 {
		return out
	}

	var topicOrder, entityOrder []string
	entityCounts := map[string]int{}
	sessions := map[string]struct{}{}

	for _, r := range records {
		sessions[r.SessionID] = struct{}{}

		for _, t := range topics.ExtractTopics(r.Question) {
			key := string(t)
			if out.TopicBreakdown[key] == 0 {
				topicOrder = append(topicOrder, key)
			}
			out.TopicBreakdown[key]++
		}
		for _, e := range topics.ExtractEntities(r.Question) {
			if entityCounts[e] == 0 {
				entityOrder = append(entityOrder, e)
			}
			entityCounts[e]++
		}
		hour := fmt.Sprintf("%d:00", r.Timestamp.UTC().Hour())
		out.HourlyBreakdown[hour]++
	}

	out.TotalSessions = len(sessions)
	out.TotalQuestions = len(records)

	sort.SliceStable(topicOrder, func(i, j int) bool {
		return out.TopicBreakdown[topicOrder[i]] > out.TopicBreakdown[topicOrder[j]]
	})
	for i, t := range topicOrder {
		if i == 5 {
			break
		}
		out.MostAskedTopics = append(out.MostAskedTopics, TopicCount{Topic: t, Count: out.TopicBreakdown[t]})
	}

	sort.SliceStable(entityOrder, func(i, j int) bool {
		return entityCounts[entityOrder[i]] > entityCounts[entityOrder[j]]
	})
	for i, e := range entityOrder {
		if i == 10 {
			break
		}
		out.EntityMentions = append(out.EntityMentions, EntityCount{Entity: e, Count: entityCounts[e]})
	}
	return out
}
