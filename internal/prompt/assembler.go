// Package prompt assembles the single prompt string sent to the model for
// every tool kind, in one fixed section order.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/grounding"
)

// RulePreamble opens every prompt verbatim.
const RulePreamble = `CRITICAL INSTRUCTIONS - READ CAREFULLY:
1. You MUST ONLY use information from the provided project context below
2. DO NOT make up, invent, or hallucinate any information not explicitly provided
3. If the project context doesn't contain relevant information, say so explicitly
4. DO NOT reference any projects, companies, or details not mentioned in the context
5. Do not use em dashes anywhere, use regular hyphens (-) instead
6. Do not use emojis
7. Always use a natural, human-like tone
8. Do not generate tables - use bullet points or numbered lists instead`

// DisclosureClause is present whenever the grounding document is empty.
const DisclosureClause = "No project context is available. If the request cannot be answered from the information above, explicitly state that the available project context is insufficient instead of guessing or inventing details."

// Section labels.
const (
	personaLabel     = "Your Role Context:"
	overviewLabel    = "Project Overview:"
	fallbackLabel    = "Project Information:"
	historyLabel     = "Previous Conversation:"
	hintLabel        = "Additional Instructions:"
	inputsLabel      = "Inputs:"
	chatInstruction  = "Current User Message:"
	toolInstruction  = "Task:"
	projectInfoTitle = "PROJECT INFORMATION (USE ONLY THIS INFORMATION):"
)

// Request carries everything a prompt can be built from.
type Request struct {
	Kind ToolKind
	// Project may be nil for the assistant; ProjectID is then used for framing.
	Project     *domain.Project
	ProjectID   string
	Persona     *domain.Persona
	Grounding   grounding.Document
	History     []domain.Message
	Hint        string
	Instruction string
	Fields      map[string]string
}

// Assembler builds prompts. It is stateless and safe for concurrent use.
type Assembler struct{}

// NewAssembler returns the shared assembler.
func NewAssembler() *Assembler { return &Assembler{} }

// ProjectName is the literal name a prompt tells the model to use.
func ProjectName(p *domain.Project, doc grounding.Document) string {
	switch {
	case p != nil && strings.TrimSpace(p.Name) != "":
		return p.Name
	case !doc.Empty():
		return "Project"
	default:
		return "Unknown Project"
	}
}

// Validate checks the request against the tool spec without building anything.
func (a *Assembler) Validate(req Request) (ToolSpec, error) {
	spec, ok := Lookup(req.Kind)
	if !ok {
		return ToolSpec{}, domain.Invalid("tool", "unknown tool kind %q", req.Kind)
	}
	if spec.Surface != SurfaceConversational && req.Project == nil {
		return spec, domain.Invalid("project", "is required")
	}
	if spec.Surface == SurfaceConversational && strings.TrimSpace(req.Instruction) == "" {
		return spec, domain.Invalid("message", "is required")
	}
	for _, f := range spec.Fields {
		v := strings.TrimSpace(req.Fields[f.Key])
		if f.Required && v == "" {
			return spec, domain.Invalid(f.Key, "is required for %s", spec.Name)
		}
		if v != "" && len(f.Options) > 0 && !containsFold(f.Options, v) {
			return spec, domain.Invalid(f.Key, "must be one of [%s]", strings.Join(f.Options, ", "))
		}
	}
	for k := range req.Fields {
		if _, ok := spec.Field(k); !ok {
			return spec, domain.Invalid(k, "is not an input of %s", spec.Name)
		}
	}
	return spec, nil
}

// Build assembles the prompt. Sections, in order: rule preamble, tool task,
// persona, project and grounding, history, hint, instruction and closing.
func (a *Assembler) Build(req Request) (string, error) {
	spec, err := a.Validate(req)
	if err != nil {
		return "", err
	}
	chat := spec.Surface == SurfaceConversational
	name := ProjectName(req.Project, req.Grounding)

	var sections []string
	sections = append(sections, RulePreamble)
	sections = append(sections, taskSection(spec, req.Fields))
	if req.Persona != nil {
		sections = append(sections, personaSection(req.Persona))
	}
	sections = append(sections, projectSection(spec, req, chat))
	if chat && len(req.History) > 0 {
		sections = append(sections, historySection(req.History))
	}
	if hint := strings.TrimSpace(req.Hint); hint != "" {
		sections = append(sections, hintLabel+"\n"+req.Hint)
	}
	sections = append(sections, closingSection(spec, req, chat, name))

	return strings.Join(sections, "\n\n") + "\n", nil
}

func taskSection(spec ToolSpec, fields map[string]string) string {
	var b strings.Builder
	b.WriteString(spec.Task)
	var inputs []string
	for _, f := range spec.Fields {
		v := strings.TrimSpace(fields[f.Key])
		if v == "" {
			v = f.Default
		}
		if v == "" {
			continue
		}
		if strings.Contains(v, "\n") {
			inputs = append(inputs, fmt.Sprintf("%s:\n%s", f.Label, v))
		} else {
			inputs = append(inputs, fmt.Sprintf("- %s: %s", f.Label, v))
		}
	}
	if len(inputs) > 0 {
		b.WriteString("\n\n")
		b.WriteString(inputsLabel)
		b.WriteString("\n")
		b.WriteString(strings.Join(inputs, "\n"))
	}
	return b.String()
}

func personaSection(p *domain.Persona) string {
	return fmt.Sprintf(`%s
- Name: %s
- Title: %s
- Company: %s
- Industry: %s
- Description: %s

Please respond from the perspective of this role and tailor your advice accordingly.`,
		personaLabel, p.Name, p.RoleTitle, orNA(p.Organization), orNA(p.Industry), orNA(p.Description))
}

func projectSection(spec ToolSpec, req Request, chat bool) string {
	var b strings.Builder
	b.WriteString(projectInfoTitle)
	b.WriteString("\n")
	switch {
	case req.Project != nil:
		p := req.Project
		fmt.Fprintf(&b, "%s\n- Name: %s\n- Description: %s\n- Lead Source: %s\n- Priority: %s\n- Status: %s\n",
			overviewLabel, p.Name, orNA(p.Description), orNA(p.LeadSource), p.Priority, p.Status)
		if spec.Kind != KindContextSummary {
			fmt.Fprintf(&b, "- AI Summary: %s\n", orNA(p.ContextSummary))
		}
	case chat && !req.Grounding.Empty():
		fmt.Fprintf(&b, "%s\n- Project ID: %s\n- Note: Basic project details are not available, but detailed context is provided below\n",
			fallbackLabel, orNA(req.ProjectID))
	}
	if req.Grounding.Empty() {
		b.WriteString("\n")
		b.WriteString(DisclosureClause)
	} else {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(req.Grounding.Text, "\n"))
	}
	return b.String()
}

func historySection(history []domain.Message) string {
	lines := make([]string, 0, len(history)+1)
	lines = append(lines, historyLabel)
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role.Label(), m.Content))
	}
	return strings.Join(lines, "\n")
}

func closingSection(spec ToolSpec, req Request, chat bool, name string) string {
	var b strings.Builder
	b.WriteString("STRICT REQUIREMENT: Your response must be based entirely on the project information provided above. ")
	b.WriteString("If the context doesn't contain enough information, explicitly state that the available project context is insufficient.\n\n")
	instruction := strings.TrimSpace(req.Instruction)
	if chat {
		fmt.Fprintf(&b, "%s %s\n\n", chatInstruction, instruction)
	} else {
		if instruction == "" {
			instruction = fmt.Sprintf("Generate the %s output for \"%s\" now. Return only the generated content.", spec.Name, name)
		}
		fmt.Fprintf(&b, "%s %s\n\n", toolInstruction, instruction)
	}
	fmt.Fprintf(&b, "Provide a response using ONLY the project information provided above. Reference the actual project name \"%s\" and use only the details from the project context.", name)
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func containsFold(options []string, v string) bool {
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return true
		}
	}
	return false
}
