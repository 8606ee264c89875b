package prompt

import (
	"sort"
	"strings"
)

// ToolKind identifies a generator.
type ToolKind string

// Surface groups tool kinds by the screen or command family that drives them.
type Surface string

const (
	SurfaceConversational Surface = "conversational"
	SurfaceSales          Surface = "sales"
	SurfaceMarketing      Surface = "marketing"
	SurfaceInternal       Surface = "internal"
)

const (
	KindAssistant ToolKind = "assistant"

	KindColdEmail            ToolKind = "cold-email"
	KindPitchDeck            ToolKind = "pitch-deck"
	KindCallScripts          ToolKind = "call-scripts"
	KindLinkedInOutreach     ToolKind = "linkedin-outreach"
	KindBattlecards          ToolKind = "battlecards"
	KindRelationshipFollowUp ToolKind = "relationship-followup"

	KindAdCopy              ToolKind = "ad-copy"
	KindContentCalendar     ToolKind = "content-calendar"
	KindNewsletter          ToolKind = "newsletter"
	KindLandingPage         ToolKind = "landing-page"
	KindContentRepurposer   ToolKind = "content-repurposer"
	KindSEOOptimizer        ToolKind = "seo-optimizer"
	KindTargetingStrategy   ToolKind = "targeting-strategy"
	KindBrandMessaging      ToolKind = "brand-messaging"
	KindPerformanceAnalysis ToolKind = "performance-analysis"
	KindCampaignBrief       ToolKind = "campaign-brief"

	KindContextSummary ToolKind = "context-summary"
)

// Field is a user-supplied input of a tool.
type Field struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Default  string   `json:"default,omitempty"`
}

// ToolSpec describes one tool kind.
type ToolSpec struct {
	Kind        ToolKind
	Surface     Surface
	Name        string
	Description string
	// Task is the role and structural requirements block.
	Task   string
	Fields []Field
}

// Field returns the field with key, if the tool declares it.
func (s ToolSpec) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

var specs = map[ToolKind]ToolSpec{}

func register(s ToolSpec) {
	s.Task = strings.TrimSpace(s.Task)
	specs[s.Kind] = s
}

// Lookup returns the spec for kind.
func Lookup(kind ToolKind) (ToolSpec, bool) {
	s, ok := specs[kind]
	return s, ok
}

// Tools lists the specs of a surface, sorted by kind. An empty surface lists all.
func Tools(surface Surface) []ToolSpec {
	var out []ToolSpec
	for _, s := range specs {
		if surface == "" || s.Surface == surface {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Surface != out[j].Surface {
			return out[i].Surface < out[j].Surface
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func init() {
	register(ToolSpec{
		Kind:        KindAssistant,
		Surface:     SurfaceConversational,
		Name:        "Context Assistant",
		Description: "Multi-turn Q&A grounded in one project's context",
		Task: `
You are an intelligent business advisor helping with project-related questions. You have access to specific context about this project. You must base your responses EXCLUSIVELY on the information provided below.
Be helpful and provide actionable advice based ONLY on the provided context.`,
	})

	// Sales
	register(ToolSpec{
		Kind:        KindColdEmail,
		Surface:     SurfaceSales,
		Name:        "Cold Email Generator",
		Description: "Personalized cold emails that convert",
		Task: `
You are a cold-outreach copywriter. Write a cold outreach email that introduces the project's product or service to its audience. The goal is to generate interest or schedule a demo. The email should be short, persuasive and sound natural, not robotic or overly formal.

Include the following:
- A strong subject line that grabs attention
- A personalized opening line that relates to the reader's role or challenge
- A concise explanation of what the product does and how it can help
- 2-3 value-driven bullet points or benefits
- A non-pushy call-to-action (such as inviting them to book a quick call or reply if interested)

Keep the tone approachable and professional. Make the email approximately 100-120 words long. Avoid jargon, keep it human, and make it feel like it was written just for the recipient.`,
	})
	register(ToolSpec{
		Kind:        KindPitchDeck,
		Surface:     SurfaceSales,
		Name:        "Pitch Deck Generator",
		Description: "Presentations that close deals",
		Task: `
You are a startup pitch strategist. Generate a professional 10-slide pitch deck outline for the project's offering.

The deck must contain exactly these numbered slides:
1. Problem
2. Solution
3. Product Overview
4. Market Opportunity
5. Business Model
6. Traction
7. Marketing & Sales Strategy
8. Competitive Advantage
9. Team
10. Ask / Funding Needs

Tone: professional, confident, clear.
- Add short bullet points under each slide for easy presentation.
- Where the project context has nothing for a slide, say so on that slide instead of inventing numbers.
- Keep it investor-friendly and logical.`,
	})
	register(ToolSpec{
		Kind:        KindCallScripts,
		Surface:     SurfaceSales,
		Name:        "Call Script Generator",
		Description: "Discovery and demo scripts that engage prospects",
		Task: `
You are a sales enablement coach. Generate a sales call script for a representative introducing the project's product or service.

The goals of the call are:
- Introduce the product
- Identify pain points
- Book a follow-up demo

Structure the script to include:
- Friendly opening
- Qualifying questions
- Brief product pitch
- Objection handling tips
- Closing lines to schedule a meeting

Keep it conversational, natural, and adaptable for 5-7 minute calls.`,
	})
	register(ToolSpec{
		Kind:        KindLinkedInOutreach,
		Surface:     SurfaceSales,
		Name:        "LinkedIn Outreach",
		Description: "Thoughtful comments and DMs that build relationships",
		Task: `
You are a social selling specialist. Generate a thoughtful LinkedIn comment and a follow-up DM for engaging the project's target contact. The goal is to start a professional relationship by providing value or insight, not pitching directly.

Tone: helpful, genuine, and tailored to the person's role or content.

Constraints:
- Label the two parts "Comment" and "DM".
- Keep the comment under 100 words.
- Keep the DM under 100 words.
- Avoid sounding like a template or pitch.
- Show real engagement and offer to continue the conversation.`,
	})
	register(ToolSpec{
		Kind:        KindBattlecards,
		Surface:     SurfaceSales,
		Name:        "Sales Battlecards",
		Description: "Competitive intelligence for handling objections",
		Task: `
You are a competitive intelligence analyst. Generate a concise sales battlecard to help a rep respond to objections when selling the project's offering.

Include:
- Key differentiators
- Common objections and suggested rebuttals
- 1-line competitive positioning against the top 2 competitors named in the context (if none are named, say so)

Tone: sharp, persuasive, and easy to scan. Make it tactical and usable during live sales calls.`,
	})
	register(ToolSpec{
		Kind:        KindRelationshipFollowUp,
		Surface:     SurfaceSales,
		Name:        "Relationship Follow-up",
		Description: "Follow-up emails after a meeting or touchpoint",
		Task: `
You are an account manager. Write a follow-up email after a recent touchpoint with the project's contact.

Include:
- A subject line
- A short thank-you that references the project by name
- A recap of the relevant points from the project context
- One clear next step

Keep it under 150 words and warm without being pushy.`,
	})

	// Marketing
	register(ToolSpec{
		Kind:        KindAdCopy,
		Surface:     SurfaceMarketing,
		Name:        "Ad Copy Assistant",
		Description: "High-converting ads for the selected platform",
		Task: `
You are a performance marketing copywriter. Write ad copy for the selected platform that follows that platform's format conventions.

Include:
- 3 headline variations
- 2 description or primary text variations
- A call-to-action for each variation
- 3-5 A/B test ideas, each naming the variable being tested`,
		Fields: []Field{{Key: "platform", Label: "Platform", Options: []string{"Google Ads", "Meta", "LinkedIn Ads"}, Default: "Google Ads"}},
	})
	register(ToolSpec{
		Kind:        KindContentCalendar,
		Surface:     SurfaceMarketing,
		Name:        "Content Calendar Generator",
		Description: "A month of content themes and posts",
		Task: `
You are a content strategist. Build a 4-week content calendar for the project.

For each week give:
- A theme
- 3 post ideas with the channel for each
- The goal each post serves

Present it as a numbered list of weeks with bullet points beneath each.`,
	})
	register(ToolSpec{
		Kind:        KindNewsletter,
		Surface:     SurfaceMarketing,
		Name:        "Newsletter Wizard",
		Description: "Engaging newsletter issues",
		Task: `
You are an email newsletter editor. Write one newsletter issue for the project's audience.

Include:
- A subject line and a preview line
- A short intro
- 2-3 sections with headings
- A closing call-to-action

Keep it between 250 and 400 words.`,
	})
	register(ToolSpec{
		Kind:        KindLandingPage,
		Surface:     SurfaceMarketing,
		Name:        "Landing Page Writer",
		Description: "Conversion-focused landing page copy",
		Task: `
You are a conversion copywriter. Write landing page copy for the project.

Provide these sections in order:
1. Hero headline and subheadline
2. Problem statement
3. Solution and key benefits (3-5 bullets)
4. How it works (3 steps)
5. Social proof (only if present in the context; otherwise state that none is available)
6. FAQ (3 questions)
7. Final call-to-action`,
	})
	register(ToolSpec{
		Kind:        KindContentRepurposer,
		Surface:     SurfaceMarketing,
		Name:        "Content Repurposer",
		Description: "Turn one piece of content into many formats",
		Task: `
You are a content marketer. Repurpose the source text below into:
- A LinkedIn post (under 150 words)
- A short X/Twitter thread (3-5 posts)
- An email teaser (under 80 words)
- 3 short social captions

Keep every version faithful to the source text and the project context.`,
		Fields: []Field{{Key: "source_text", Label: "Source Text", Required: true}},
	})
	register(ToolSpec{
		Kind:        KindSEOOptimizer,
		Surface:     SurfaceMarketing,
		Name:        "SEO Optimizer",
		Description: "Optimize copy for search",
		Task: `
You are a senior SEO strategist. Optimize the source copy below for search while keeping its meaning.

Provide:
- A suggested title tag (under 60 characters) and meta description (under 155 characters)
- Primary and secondary keyword recommendations (use the provided keywords when given)
- The rewritten copy
- A short list of on-page improvements`,
		Fields: []Field{
			{Key: "source_copy", Label: "Source Copy", Required: true},
			{Key: "keywords", Label: "Target Keywords"},
		},
	})
	register(ToolSpec{
		Kind:        KindTargetingStrategy,
		Surface:     SurfaceMarketing,
		Name:        "Targeting Strategy",
		Description: "Audience segments and channel strategy",
		Task: `
You are a growth marketer. Define a targeting strategy for the project.

Include:
- 2-3 audience segments with their pains and motivations
- The best channels for each segment
- The message angle for each segment
- One quick experiment per segment`,
	})
	register(ToolSpec{
		Kind:        KindBrandMessaging,
		Surface:     SurfaceMarketing,
		Name:        "Brand Messaging",
		Description: "Positioning, value proposition and voice",
		Task: `
You are a brand strategist. Write a brand messaging guide for the project.

Include:
- A positioning statement
- A one-sentence value proposition
- 3 messaging pillars with supporting points
- Voice and tone guidelines (do and don't lists)
- A short elevator pitch`,
	})
	register(ToolSpec{
		Kind:        KindPerformanceAnalysis,
		Surface:     SurfaceMarketing,
		Name:        "Performance Analysis",
		Description: "Campaign performance insights",
		Task: `
You are a marketing analyst. Analyze campaign performance for the project.

If metrics are provided below, interpret them; if not, state that no metrics were provided and list the metrics that should be tracked.
Include:
- Key observations
- Likely causes
- 3-5 prioritized optimization recommendations`,
		Fields: []Field{{Key: "metrics", Label: "Campaign Metrics"}},
	})
	register(ToolSpec{
		Kind:        KindCampaignBrief,
		Surface:     SurfaceMarketing,
		Name:        "Campaign Brief",
		Description: "A complete brief for a marketing campaign",
		Task: `
You are a marketing campaign manager. Write a campaign brief for the project.

Sections:
1. Objective
2. Target audience
3. Key message
4. Channels
5. Deliverables
6. Timeline
7. Success metrics`,
	})

	register(ToolSpec{
		Kind:        KindContextSummary,
		Surface:     SurfaceInternal,
		Name:        "Context Summary",
		Description: "The project's AI summary",
		Task: `
Create a comprehensive context summary for this sales/marketing project.

Capture:
1. The project's main objective and target
2. Key insights from analyzed websites (business type, services, opportunities)
3. Important context from uploaded files and text content
4. Strategic insights and recommendations for sales and marketing work
5. Any competitive advantages, pain points, or opportunities identified

Focus especially on actionable insights. Keep it under 500 words but make it rich with specific, actionable information.`,
	})
}
