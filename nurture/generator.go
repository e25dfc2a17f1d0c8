// Package nurture generates the seven email follow-up sequence sent after an
// AI readiness assessment.
package nurture

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"leadengine/scoring"
)

// Readiness levels
const (
	ReadinessBeginner    = "beginner"
	ReadinessExplorer    = "explorer"
	ReadinessImplementer = "implementer"
	ReadinessLeader      = "leader"
)

// Dimension keys, in tie-break order.
const (
	DimensionCurrentState     = "current_state"
	DimensionStrategyVision   = "strategy_vision"
	DimensionTeamCapabilities = "team_capabilities"
	DimensionImplementation   = "implementation"
)

var dimensionOrder = []string{
	DimensionCurrentState,
	DimensionStrategyVision,
	DimensionTeamCapabilities,
	DimensionImplementation,
}

// SendOffsets are the days after the assessment each email goes out.
var SendOffsets = [SequenceLength]int{2, 4, 7, 10, 14, 21, 28}

// SequenceLength is the number of emails in every sequence.
const SequenceLength = 7

// NurtureSequenceData is a flattened assessment submission.
type NurtureSequenceData struct {
	Email            string
	Name             string
	Industry         string
	TeamSize         string
	Role             string
	BiggestChallenge string
	Timeline         string
	OverallScore     int
	Scores           scoring.ScoreBreakdown
}

// NurtureEmail is one rendered step of the sequence.
type NurtureEmail struct {
	Subject       string `json:"subject"`
	Preheader     string `json:"preheader"`
	HTML          string `json:"html"`
	SendAfterDays int    `json:"sendAfterDays"`
	EmailNumber   int    `json:"emailNumber"`
}

// Links are the destinations the emails point at.
type Links struct {
	Course      string
	Consulting  string
	Resource    string
	Booking     string
	Unsubscribe string
}

// Generator renders sequences from a content set.
type Generator struct {
	content *Content
	links   Links
}

// NewGenerator returns a generator over content. A nil content uses the
// built-in set.
func NewGenerator(content *Content, links Links) (*Generator, error) {
	if content == nil {
		c, err := DefaultContent()
		if err != nil {
			return nil, err
		}
		content = c
	}
	return &Generator{content: content, links: links}, nil
}

// ContentVersion identifies the content set in use.
func (g *Generator) ContentVersion() string {
	return g.content.Version
}

// ReadinessLevel buckets an overall assessment score.
func ReadinessLevel(score int) string {
	switch {
	case score >= 80:
		return ReadinessLeader
	case score >= 60:
		return ReadinessImplementer
	case score >= 40:
		return ReadinessExplorer
	default:
		return ReadinessBeginner
	}
}

// WeakestArea returns the lowest scoring dimension. Ties go to the dimension
// listed first.
func WeakestArea(b scoring.ScoreBreakdown) string {
	values := map[string]int{
		DimensionCurrentState:     b.CurrentState,
		DimensionStrategyVision:   b.StrategyVision,
		DimensionTeamCapabilities: b.TeamCapabilities,
		DimensionImplementation:   b.Implementation,
	}
	weakest := dimensionOrder[0]
	for _, d := range dimensionOrder[1:] {
		if values[d] < values[weakest] {
			weakest = d
		}
	}
	return weakest
}

var (
	largeTeams     = []string{"51-200", "201-500", "201-1000", "500+", "501-1000", "1000+", "1001+", "enterprise"}
	executiveRoles = []string{"executive", "c-suite", "ceo", "cto", "cfo", "coo", "founder", "owner", "president", "vp"}
)

// IsHighTicket decides whether the soft pitch offers consulting rather than
// the course.
func IsHighTicket(d NurtureSequenceData) bool {
	level := ReadinessLevel(d.OverallScore)
	if level == ReadinessImplementer || level == ReadinessLeader {
		return true
	}
	team := strings.ToLower(strings.ReplaceAll(d.TeamSize, " ", ""))
	for _, t := range largeTeams {
		if team == t {
			return true
		}
	}
	role := strings.ToLower(d.Role)
	for _, r := range executiveRoles {
		if role == r || strings.HasPrefix(role, r+" ") || strings.Contains(role, " "+r) || strings.Contains(role, r+"/") {
			return true
		}
	}
	return false
}

// GenerateNurtureSequence renders all seven emails. It is total: unknown
// industries and challenges fall back to default content.
func (g *Generator) GenerateNurtureSequence(d NurtureSequenceData) []NurtureEmail {
	builders := [SequenceLength]func(NurtureSequenceData) (string, string, string){
		g.quickWinEmail,
		g.industryEmail,
		g.weakestAreaEmail,
		g.caseStudyEmail,
		g.freeResourceEmail,
		g.softPitchEmail,
		g.finalEmail,
	}

	unsubscribe := g.unsubscribeURL(d.Email)
	emails := make([]NurtureEmail, 0, SequenceLength)
	for i, build := range builders {
		subject, preheader, body := build(d)
		emails = append(emails, NurtureEmail{
			Subject:       subject,
			Preheader:     preheader,
			HTML:          wrapper(subject, preheader, template.HTML(body), unsubscribe),
			SendAfterDays: SendOffsets[i],
			EmailNumber:   i + 1,
		})
	}
	return emails
}

func (g *Generator) unsubscribeURL(email string) string {
	if g.links.Unsubscribe == "" || email == "" {
		return g.links.Unsubscribe
	}
	sep := "?"
	if strings.Contains(g.links.Unsubscribe, "?") {
		sep = "&"
	}
	return g.links.Unsubscribe + sep + "email=" + url.QueryEscape(email)
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func greeting(d NurtureSequenceData) string {
	return paragraph("Hi %s,", esc(firstName(d.Name)))
}

func signoff() string {
	return paragraph("To your success,<br>The AI Strategy Team")
}

func (g *Generator) quickWinEmail(d NurtureSequenceData) (string, string, string) {
	qw := g.content.quickWin(d.BiggestChallenge)
	subject := fmt.Sprintf("Your first AI quick win: %s", qw.Action)
	preheader := fmt.Sprintf("A %s action you can take this week", qw.TimeToResult)

	var b strings.Builder
	b.WriteString(greeting(d))
	b.WriteString(paragraph("Thanks again for completing the AI Readiness Assessment. You scored <strong>%d/100</strong>, and the fastest way to build momentum is a quick, visible win.", d.OverallScore))
	b.WriteString(heading(qw.Action))
	b.WriteString(orderedList(qw.Steps))
	b.WriteString(tipBox("Time to result", esc(qw.TimeToResult)))
	b.WriteString(paragraph("Reply to this email and tell me how it went. I read every response."))
	b.WriteString(signoff())
	return subject, preheader, b.String()
}

func (g *Generator) industryEmail(d NurtureSequenceData) (string, string, string) {
	in := g.content.industry(d.Industry)
	subject := fmt.Sprintf("3 AI opportunities for %s", in.Label)
	preheader := in.Stat

	var b strings.Builder
	b.WriteString(greeting(d))
	b.WriteString(paragraph("Here is where organisations like yours are getting real value from AI right now."))
	for i, op := range in.Opportunities {
		b.WriteString(fmt.Sprintf("<h2>%d. %s</h2>\n", i+1, esc(op.Name)))
		b.WriteString(paragraph("<strong>Impact:</strong> %s<br><strong>Difficulty:</strong> %s", esc(op.Impact), esc(op.Difficulty)))
	}
	b.WriteString(tipBox("By the numbers", esc(in.Stat)))
	b.WriteString(signoff())
	return subject, preheader, b.String()
}

func (g *Generator) weakestAreaEmail(d NurtureSequenceData) (string, string, string) {
	area := WeakestArea(d.Scores)
	advice := g.content.WeakAreas[area]
	subject := fmt.Sprintf("The one area holding back your AI progress: %s", advice.Title)
	preheader := "Three ways to close your biggest gap"

	var b strings.Builder
	b.WriteString(greeting(d))
	b.WriteString(paragraph("Your assessment showed that <strong>%s</strong> is your lowest scoring area.", esc(advice.Title)))
	b.WriteString(paragraph("%s", esc(advice.Problem)))
	b.WriteString(valueBox("What to do about it", advice.Remedies))
	b.WriteString(tipBox("Recommended resource", esc(advice.Resource)))
	b.WriteString(button("Get the resource", g.links.Resource))
	b.WriteString(signoff())
	return subject, preheader, b.String()
}

func (g *Generator) caseStudyEmail(d NurtureSequenceData) (string, string, string) {
	cs := g.content.caseStudy(d.Industry)
	subject := fmt.Sprintf("How %s made AI work", cs.Company)
	preheader := "A real story with real numbers"

	var b strings.Builder
	b.WriteString(greeting(d))
	b.WriteString(paragraph("<strong>%s</strong> (%s) had a familiar problem: %s", esc(cs.Company), esc(cs.Industry), esc(cs.Challenge)))
	b.WriteString(paragraph("<strong>What they did:</strong> %s", esc(cs.Solution)))
	b.WriteString(valueBox("The results", cs.Results))
	b.WriteString(fmt.Sprintf("<blockquote>&ldquo;%s&rdquo;<br>&mdash; %s</blockquote>\n", esc(cs.Quote), esc(cs.QuoteAuthor)))
	b.WriteString(paragraph("Could the same approach work for you? Let's find out."))
	b.WriteString(button("Book a call", g.links.Booking))
	b.WriteString(signoff())
	return subject, preheader, b.String()
}

func (g *Generator) freeResourceEmail(d NurtureSequenceData) (string, string, string) {
	r := g.content.FreeResource
	subject := fmt.Sprintf("Free for you: %s", r.Title)
	preheader := r.Description

	var b strings.Builder
	b.WriteString(greeting(d))
	b.WriteString(paragraph("%s", esc(r.Description)))
	b.WriteString(valueBox("Inside the toolkit", r.Includes))
	b.WriteString(button("Download the toolkit", g.links.Resource))
	b.WriteString(signoff())
	return subject, preheader, b.String()
}

func (g *Generator) softPitchEmail(d NurtureSequenceData) (string, string, string) {
	offer, link := g.content.Offers.Course, g.links.Course
	if IsHighTicket(d) {
		offer, link = g.content.Offers.Consulting, g.links.Consulting
	}
	subject := fmt.Sprintf("%s: %s", offer.Name, offer.Headline)
	preheader := offer.Headline

	var b strings.Builder
	b.WriteString(greeting(d))
	b.WriteString(paragraph("Over the past two weeks we have shared quick wins, industry opportunities and a plan for your weakest area. If you want to go faster, here is how we can help."))
	b.WriteString(heading(offer.Name))
	b.WriteString(paragraph("%s", esc(offer.Headline)))
	b.WriteString(valueBox("What you get", offer.Benefits))
	b.WriteString(paragraph("<strong>Investment:</strong> %s", esc(offer.Price)))
	b.WriteString(button(offer.CTA, link))
	b.WriteString(signoff())
	return subject, preheader, b.String()
}

func (g *Generator) finalEmail(d NurtureSequenceData) (string, string, string) {
	subject := "Your AI journey: three ways forward"
	preheader := "Pick the path that fits where you are"

	var b strings.Builder
	b.WriteString(greeting(d))
	b.WriteString(paragraph("This is the last email in this series, so let's make it count. Wherever you are on your AI journey, there is a next step that fits."))
	b.WriteString(heading("Option 1: Do it yourself"))
	b.WriteString(paragraph("Use the toolkit and the quick wins we shared. Everything you need to start is already in your inbox."))
	b.WriteString(button("Revisit the toolkit", g.links.Resource))
	b.WriteString(heading("Option 2: Learn with us"))
	b.WriteString(paragraph("%s gives you the frameworks and a community of peers.", esc(g.content.Offers.Course.Name)))
	b.WriteString(button(g.content.Offers.Course.CTA, g.links.Course))
	b.WriteString(heading("Option 3: Work with us"))
	b.WriteString(paragraph("%s pairs you with our team to build and deploy your roadmap.", esc(g.content.Offers.Consulting.Name)))
	b.WriteString(button(g.content.Offers.Consulting.CTA, g.links.Consulting))
	b.WriteString(signoff())
	return subject, preheader, b.String()
}
