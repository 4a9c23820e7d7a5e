package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blogcaster/api/internal/client"
	"github.com/blogcaster/api/internal/config"
	"github.com/blogcaster/api/internal/model"
)

// DefaultMaxScriptChars is the character budget of a spoken script
const DefaultMaxScriptChars = 2000

// maxArticleRunes caps how much article text is sent for composition
const maxArticleRunes = 60000

var (
	ErrEmptyScript   = errors.New("composer returned an empty script")
	ErrScriptTooLong = errors.New("script exceeds character budget")
	ErrEmptyArticle  = errors.New("article text is empty")
)

const systemPromptTemplate = `You are a podcast host who turns blog posts into short audio episodes.

Given the text of a web article, write the script for one podcast episode:
1. Summarize the content into a script that is NO MORE THAN %d characters long.
2. Make it engaging and suitable for an audio format. Do not mention images, diagrams, charts or any other visual content.
3. Make it sound natural and conversational, as if spoken by a single host.
4. Cover the key points of the article faithfully and end with a short closing line.

Return only the words to be spoken: no title, no markdown, no stage directions, no speaker labels.`

var (
	fencePattern    = regexp.MustCompile("(?m)^[ \t]*```.*$")
	headingPattern  = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]*`)
	bulletPattern   = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+•]|\d+[.)])[ \t]+`)
	linkPattern     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	boldPattern     = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	italicPattern   = regexp.MustCompile(`\*([^*\n]+)\*`)
	directionLine   = regexp.MustCompile(`(?im)^[ \t]*[\[(](?:music|intro|outro|sound|pause|applause)[^\])\n]*[\])][ \t]*$`)
	spacesPattern   = regexp.MustCompile(`[ \t]+`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)

	visualPattern = regexp.MustCompile(`(?i)\b(?:images?|pictures?|photos?|photographs?|diagrams?|charts?|graphs?|figures?|screenshots?|illustrations?|infographics?|(?:shown|pictured) (?:above|below)|as you can see)\b`)
)

// ScriptService composes spoken-word scripts from extracted articles
type ScriptService struct {
	generator client.TextGenerator
	maxChars  int
}

// NewScriptService creates a new script service
func NewScriptService(generator client.TextGenerator, cfg *config.PipelineConfig) *ScriptService {
	maxChars, _ := scriptBudget(cfg)
	return &ScriptService{
		generator: generator,
		maxChars:  maxChars,
	}
}

// scriptBudget resolves the character budget and length policy from config
func scriptBudget(cfg *config.PipelineConfig) (int, string) {
	maxChars := cfg.MaxScriptChars
	if maxChars <= 0 {
		maxChars = DefaultMaxScriptChars
	}
	policy := cfg.LengthPolicy
	if policy != config.LengthPolicyReject {
		policy = config.LengthPolicyTruncate
	}
	return maxChars, policy
}

// MaxChars returns the character budget
func (s *ScriptService) MaxChars() int {
	return s.maxChars
}

// Compose asks the text generator for a script and normalizes it for speech.
// The budget only shapes the prompt; PodcastService enforces it.
func (s *ScriptService) Compose(ctx context.Context, content *model.ExtractedContent) (*model.PodcastScript, error) {
	if strings.TrimSpace(content.RawText) == "" {
		return nil, ErrEmptyArticle
	}

	system := fmt.Sprintf(systemPromptTemplate, s.maxChars)
	raw, err := s.generator.Generate(ctx, system, buildUserPrompt(content))
	if err != nil {
		return nil, fmt.Errorf("failed to compose script: %w", err)
	}

	text := NormalizeForSpeech(raw)
	if text == "" {
		return nil, ErrEmptyScript
	}

	return &model.PodcastScript{
		Text:   text,
		Length: utf8.RuneCountInString(text),
	}, nil
}

func buildUserPrompt(content *model.ExtractedContent) string {
	article := content.RawText
	if utf8.RuneCountInString(article) > maxArticleRunes {
		article = string([]rune(article)[:maxArticleRunes])
	}

	var sb strings.Builder
	sb.WriteString("Generate a podcast episode from this article.\n\n")
	if content.Title != "" {
		sb.WriteString("Title: ")
		sb.WriteString(content.Title)
		sb.WriteString("\n")
	}
	if content.URL != "" {
		sb.WriteString("Source: ")
		sb.WriteString(content.URL)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(article)
	return sb.String()
}

// NormalizeForSpeech strips markdown and stage directions that a voice would
// otherwise read aloud
func NormalizeForSpeech(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = fencePattern.ReplaceAllString(text, "")
	text = directionLine.ReplaceAllString(text, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = boldPattern.ReplaceAllString(text, "$1$2")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = headingPattern.ReplaceAllString(text, "")
	text = bulletPattern.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spacesPattern.ReplaceAllString(line, " "))
	}
	text = blankRunPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

// TruncateScript cuts text to at most limit runes. It prefers the last sentence
// end inside the budget, then the last word boundary, then a hard cut.
func TruncateScript(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}

	window := runes[:limit]

	for i := len(window) - 1; i > 0; i-- {
		if !isSentenceEnd(window[i]) {
			continue
		}
		// the boundary must be followed by whitespace or a closing mark
		next := runes[i+1]
		if unicode.IsSpace(next) {
			return strings.TrimSpace(string(window[:i+1]))
		}
		if isClosingMark(next) && i+1 < len(window) {
			return strings.TrimSpace(string(window[:i+2]))
		}
	}

	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return strings.TrimSpace(string(window[:i]))
		}
	}

	return string(window)
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isClosingMark(r rune) bool {
	switch r {
	case '"', '\'', ')', '”', '’':
		return true
	}
	return false
}

// VisualReferences returns the distinct visual-content phrases found in text
func VisualReferences(text string) []string {
	matches := visualPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		m = strings.ToLower(m)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
