package chat

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hasnainrazaa03/jarvis/internal/content"
)

// Trigger names reported by LocalResponder.Respond.
const (
	TriggerGreeting   = "greeting"
	TriggerProject    = "project"
	TriggerSkill      = "skill"
	TriggerExperience = "experience"
	TriggerEducation  = "education"
	TriggerContact    = "contact"
	TriggerAbout      = "about"
	TriggerDefault    = "default"
)

type trigger struct {
	name     string
	keywords []string
	pattern  *regexp.Regexp
	reply    func(p content.Profile) string
}

func (t trigger) matches(lower string) bool {
	if t.pattern != nil && t.pattern.MatchString(lower) {
		return true
	}
	for _, k := range t.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// LocalResponder answers without any network call by matching the input
// against an ordered list of keyword triggers.
type LocalResponder struct {
	profile  content.Profile
	triggers []trigger
}

func NewLocalResponder(p content.Profile) *LocalResponder {
	return &LocalResponder{profile: p, triggers: defaultTriggers()}
}

// Respond returns the reply of the first matching trigger and its name.
func (l *LocalResponder) Respond(input string) (string, string) {
	lower := strings.ToLower(input)
	for _, t := range l.triggers {
		if t.matches(lower) {
			return t.reply(l.profile), t.name
		}
	}
	return defaultReply, TriggerDefault
}

const defaultReply = "I can tell you about my projects, skills, experience, education, or how to reach me. What would you like to know?"

func defaultTriggers() []trigger {
	return []trigger{
		{
			name:    TriggerGreeting,
			pattern: regexp.MustCompile(`\b(hello|hi|hey|greetings|howdy)\b`),
			reply: func(p content.Profile) string {
				return fmt.Sprintf("Hi, I'm %s! Ask me about my projects, skills, or experience.", p.Name)
			},
		},
		{
			name:     TriggerProject,
			keywords: []string{"project"},
			reply: func(p content.Profile) string {
				if len(p.Projects) == 0 {
					return "I've built several AI and full-stack projects. Ask me about a specific technology!"
				}
				titles := make([]string, 0, 3)
				for _, pr := range firstN(p.Projects, 3) {
					titles = append(titles, pr.Title)
				}
				return fmt.Sprintf("I've built several projects, including %s. Want details on any of them?", strings.Join(titles, ", "))
			},
		},
		{
			name:     TriggerSkill,
			keywords: []string{"skill", "technolog"},
			reply: func(p content.Profile) string {
				names := topSkills(p.Skills, 6)
				if len(names) == 0 {
					return "I work mostly in Python, PyTorch, TensorFlow, React, Node.js, and MATLAB."
				}
				return fmt.Sprintf("My strongest skills are %s.", strings.Join(names, ", "))
			},
		},
		{
			name:     TriggerExperience,
			keywords: []string{"experience", "work"},
			reply: func(p content.Profile) string {
				if len(p.Experience) == 0 {
					return "I've worked across AI, software engineering, and research. Ask me about a specific role!"
				}
				companies := make([]string, len(p.Experience))
				for i, e := range p.Experience {
					companies[i] = e.Company
				}
				return fmt.Sprintf("I've worked at %s. Ask me about a specific role!", strings.Join(companies, ", "))
			},
		},
		{
			name:     TriggerEducation,
			keywords: []string{"education", "degree", "university"},
			reply: func(p content.Profile) string {
				if len(p.Education) == 0 {
					return "Ask me about my academic background!"
				}
				e := p.Education[0]
				return fmt.Sprintf("I'm studying for my %s at %s. Ask me more about my academic background!", e.Degree, e.School)
			},
		},
		{
			name:     TriggerContact,
			keywords: []string{"contact", "email", "reach"},
			reply: func(p content.Profile) string {
				if p.Email == "" {
					return "You can reach me through LinkedIn. I'm always open to interesting opportunities!"
				}
				return fmt.Sprintf("You can reach me at %s. I'm always open to interesting opportunities!", p.Email)
			},
		},
		namedProject("vimaan", []string{"vimaan"}),
		namedProject("brain tumor", []string{"brain tumor", "segmentation"}),
		namedProject("recipe vault", []string{"recipe vault", "manzil"}),
		namedProject("expense tracker", []string{"expense tracker"}),
		namedProject("store separation", []string{"store separation", "cavity"}),
		{
			name:     TriggerAbout,
			keywords: []string{"who", "about"},
			reply: func(p content.Profile) string {
				return fmt.Sprintf("I'm %s, %s based in %s. Ask me about my projects, skills, or experience!", p.Name, p.Role, p.Location)
			},
		},
	}
}

// namedProject answers from the profile project whose title contains title.
func namedProject(title string, keywords []string) trigger {
	return trigger{
		name:     title,
		keywords: keywords,
		reply: func(p content.Profile) string {
			for _, pr := range p.Projects {
				if !strings.Contains(strings.ToLower(pr.Title), title) {
					continue
				}
				reply := fmt.Sprintf("I built %s. %s", pr.Title, pr.Description)
				if len(pr.Tech) > 0 {
					reply += fmt.Sprintf(" Key tech: %s.", strings.Join(firstN(pr.Tech, 4), ", "))
				}
				return reply
			}
			return "That's one of my projects. Ask me about its tech stack or results!"
		},
	}
}

// topSkills returns up to n skill names across all groups, strongest first.
func topSkills(groups []content.SkillGroup, n int) []string {
	var all []content.Skill
	for _, g := range groups {
		all = append(all, g.Items...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Pct > all[j].Pct })
	names := make([]string, 0, n)
	for _, s := range firstN(all, n) {
		names = append(names, s.Name)
	}
	return names
}
