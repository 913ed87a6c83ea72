package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/llm"
	"scoutdeck/internal/store"
)

const emailSystemPrompt = `You are an expert at crafting recruiting emails for high school baseball players contacting college coaches.

Your emails should:
1. Be concise (250-350 words for introduction, 150-200 for follow-up)
2. Highlight the student's relevant achievements and interests
3. Show genuine interest in the specific program
4. Include a clear call-to-action
5. Be professionally formatted
6. Avoid cliches and generic statements
7. Be personalized to the specific school and program

Return emails in this JSON format:
{
  "subject": "Email subject line",
  "body": "Email body with proper paragraphs separated by \n\n"
}

The body should include:
- Greeting
- Brief introduction
- Why interested in this specific program
- Relevant achievements/stats
- Academic credentials
- Call to action (requesting meeting, camp info, etc.)
- Professional closing`

const fallbackSubject = "Introduction - Baseball Recruiting"

// EmailKind selects the outreach template.
type EmailKind string

const (
	EmailIntroduction EmailKind = "introduction"
	EmailFollowup     EmailKind = "followup"
)

// Email is a drafted coach email.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailRequest carries one email-draft call.
type EmailRequest struct {
	Kind           EmailKind
	School         dataset.School
	Profile        store.Profile
	Tone           string // "professional", "friendly", "enthusiastic"
	AdditionalInfo string // notes for intros, previous-contact context for follow-ups
}

// DraftEmail asks the model for a coach email. Follow-ups get a shorter
// token budget than introductions.
func (e *Engine) DraftEmail(ctx context.Context, r EmailRequest) (Email, error) {
	if !e.Available() {
		return Email{}, fmt.Errorf("recommendation engine not configured")
	}
	if r.Tone == "" {
		r.Tone = "professional"
	}
	maxTokens := 800
	if r.Kind == EmailFollowup {
		maxTokens = 600
	}

	raw, err := e.client.Complete(ctx, llm.Request{
		System:      emailSystemPrompt,
		Prompt:      buildEmailPrompt(r),
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return Email{}, fmt.Errorf("failed to generate email: %w", err)
	}
	return ParseEmail(raw), nil
}

func buildEmailPrompt(r EmailRequest) string {
	var b strings.Builder

	schoolName := r.School.Name
	if schoolName == "" {
		schoolName = "the university"
	}

	if r.Kind == EmailFollowup {
		fmt.Fprintf(&b, "Generate a %s follow-up email from a high school baseball player to the coach at %s.\n\n", r.Tone, schoolName)
		b.WriteString("Student Information:\n")
		fmt.Fprintf(&b, "- Name: %s\n", orDefault(r.Profile.Name, "Student"))
		fmt.Fprintf(&b, "- Graduation Year: %d\n", r.Profile.GraduationYear)
		fmt.Fprintf(&b, "- Position: %s\n", orDefault(r.Profile.Position, "baseball player"))
	} else {
		fmt.Fprintf(&b, "Generate a %s introduction email from a high school baseball player to the coach at %s.\n\n", r.Tone, schoolName)
		b.WriteString("Student Information:\n")
		fmt.Fprintf(&b, "- Name: %s\n", orDefault(r.Profile.Name, "Student"))
		fmt.Fprintf(&b, "- Graduation Year: %d\n", r.Profile.GraduationYear)
		fmt.Fprintf(&b, "- Position: %s\n", orDefault(r.Profile.Position, "baseball player"))
		fmt.Fprintf(&b, "- High School: %s\n", r.Profile.HighSchool)
	}

	if len(r.Profile.AthleticMetrics) > 0 {
		data, _ := json.Marshal(r.Profile.AthleticMetrics)
		fmt.Fprintf(&b, "\nAthletic Metrics: %s", data)
	}
	if len(r.Profile.AcademicInfo) > 0 {
		data, _ := json.Marshal(r.Profile.AcademicInfo)
		fmt.Fprintf(&b, "\nAcademic Information: %s", data)
	}

	fmt.Fprintf(&b, "\n\nSchool Information:\n- School: %s\n- Division: %d\n- Conference: %s\n\n",
		schoolName, r.School.Division, r.School.Conference)

	if r.AdditionalInfo != "" {
		fmt.Fprintf(&b, "\nAdditional Context: %s\n", r.AdditionalInfo)
	}

	b.WriteString("\nGenerate an email that is personalized, professional, and compelling.")
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ParseEmail extracts subject and body from a model reply. When the reply is
// not the requested JSON, it falls back to scanning for a "Subject:" line
// and treats the remainder as the body.
func ParseEmail(reply string) Email {
	body := StripFence(reply)

	var email Email
	if err := json.Unmarshal([]byte(body), &email); err == nil {
		if email.Subject == "" {
			email.Subject = fallbackSubject
		}
		return email
	}

	email = Email{Subject: fallbackSubject, Body: reply}
	lines := strings.Split(reply, "\n")
	for i, line := range lines {
		if idx := strings.Index(strings.ToLower(line), "subject:"); idx >= 0 {
			email.Subject = strings.TrimSpace(line[idx+len("subject:"):])
			email.Body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			break
		}
	}
	return email
}
