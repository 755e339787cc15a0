package application

import (
	"context"
	"fmt"
	"strings"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

const (
	maxConversationChars = 30000
	maxMessageChars      = 2000
	legacyPreviewChars   = 500

	truncationMark = "..."
	codeFence      = "```"
	noSummaries    = "(no skill summaries available)"
	noneListed     = "(none)"
	emptyArtifact  = "(empty)"
)

// TruncateMessages keeps the most recent messages that fit within
// maxChars, counting each message after its own per-message cut.
// Selection stops at the first message that would overflow the budget,
// even if later (older) messages would still fit.
func TruncateMessages(messages []domain.Message, maxChars int) []domain.Message {
	kept := make([]domain.Message, 0, len(messages))
	total := 0

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if len(msg.Content) > maxMessageChars {
			msg.Content = msg.Content[:maxMessageChars] + truncationMark
		}
		if total+len(msg.Content) > maxChars {
			break
		}
		kept = append(kept, msg)
		total += len(msg.Content)
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return kept
}

func formatConversation(messages []domain.Message) string {
	messages = TruncateMessages(messages, maxConversationChars)
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("[%s]: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n\n")
}

// skillSummaries renders one "### name" block per skill, preferring
// the index artifact and falling back to a capped preview of a legacy
// flat file. Skills with neither are omitted.
func skillSummaries(ctx context.Context, catalog ports.SkillCatalog, names []string) string {
	summaries := make([]string, 0, len(names))
	for _, name := range names {
		index, err := catalog.Store(name).ReadIndex(ctx)
		if err == nil && index != "" {
			summaries = append(summaries, fmt.Sprintf("### %s\n%s", name, index))
			continue
		}

		legacy, err := catalog.LegacyContent(ctx, name)
		if err != nil || legacy == "" {
			continue
		}
		if len(legacy) > legacyPreviewChars {
			legacy = legacy[:legacyPreviewChars]
		}
		summaries = append(summaries, fmt.Sprintf("### %s\n%s%s", name, legacy, truncationMark))
	}

	if len(summaries) == 0 {
		return noSummaries
	}
	return strings.Join(summaries, "\n\n")
}

func decisionPrompt(messages []domain.Message, summaries string, running []string) string {
	runningList := noneListed
	if len(running) > 0 {
		runningList = strings.Join(running, ", ")
	}

	var sb strings.Builder
	sb.WriteString("You are a skill manager for a coding assistant session.\n\n")
	sb.WriteString("CURRENT CONVERSATION:\n")
	fencedBlock(&sb, formatConversation(messages))
	sb.WriteString("\nEXISTING SKILLS:\n")
	sb.WriteString(summaries)
	sb.WriteString("\n\nCURRENTLY RUNNING OBSERVERS: " + runningList + "\n\n")
	sb.WriteString(`Your job is to decide:
1. Which NEW skills should be created based on this conversation topic
2. Which EXISTING skills should have their observers started (if relevant and not running)
3. Which running observers should be STOPPED (if no longer relevant)

GUIDELINES:
- Start observers for skills that match the conversation topic
- Create new skills when the topic doesn't match existing skills
- Stop observers that are clearly no longer relevant
- Be conservative - don't stop skills that might become relevant again
- Skill names should be short, lowercase, hyphenated (e.g., "react-hooks", "postgres-queries")

Respond in this exact format:
START: skill1, skill2 (or "none")
STOP: skill3 (or "none")
NEW: skill-name: description (or "none")
REASON: Brief explanation of your decision`)

	return sb.String()
}

func distillPrompt(skill domain.Skill, details string, resources []string, messages []domain.Message, maxSkillBytes int) string {
	if details == "" {
		details = emptyArtifact
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are a knowledge distiller for the skill: %q\n", skill.Name))
	sb.WriteString("Skill description: " + skill.Description + "\n\n")
	sb.WriteString("Your job is to maintain a comprehensive knowledge file capturing relevant learnings.\n\n")
	sb.WriteString("CURRENT DETAILS FILE:\n")
	fencedBlock(&sb, details)
	if len(resources) > 0 {
		sb.WriteString("\nEXISTING RESOURCE FILES: " + strings.Join(resources, ", ") + "\n")
	}
	sb.WriteString("\nRECENT CONVERSATION:\n")
	fencedBlock(&sb, formatConversation(messages))
	sb.WriteString(fmt.Sprintf(`
GUIDELINES:
- Capture everything relevant to %q
- Include: patterns, examples, gotchas, user corrections, code snippets
- Organize with clear markdown sections
- Prioritize: user corrections > patterns > preferences > facts
- Maximum size: %d bytes
- Remove outdated info as necessary
- If space is needed, make an informed decision on whether to merge, replace, swap, or discard incoming info with existing info
- You may create additional resource files (e.g., examples.md, deprecated.md, reference.md) for less important information

OUTPUT FORMAT:
- If updates needed: output the complete updated details.md content
- To create resource files, append after the main content:
  NEW_FILE: filename.md
  (file content here)
- If nothing to add: respond with exactly: NO_UPDATE`, skill.Name, maxSkillBytes))

	return sb.String()
}

func summarizePrompt(skill domain.Skill, details string, maxIndexBytes int) string {
	var sb strings.Builder
	sb.WriteString("You are summarizing a skill's detailed knowledge into a compact index.\n\n")
	sb.WriteString("SKILL: " + skill.Name + "\n")
	sb.WriteString("DESCRIPTION: " + skill.Description + "\n\n")
	sb.WriteString("FULL DETAILS:\n")
	fencedBlock(&sb, details)
	sb.WriteString(fmt.Sprintf(`
Create a concise index.md (under %d bytes) that is as information-dense as possible.

GUIDELINES:
- Retain the most important information and as much detail as space allows
- One-paragraph overview
- Key facts/constraints (bullet points)
- Most important gotchas
- Quick reference (common commands/patterns)
- Use terse language, abbreviations where clear, and compact formatting

This index helps decide IF this skill is relevant. Full details are loaded separately when needed.

OUTPUT: The complete index.md content (no explanation, no code fences)`, maxIndexBytes))

	return sb.String()
}

func fencedBlock(sb *strings.Builder, content string) {
	sb.WriteString(codeFence + "\n")
	sb.WriteString(content)
	sb.WriteString("\n" + codeFence + "\n")
}
