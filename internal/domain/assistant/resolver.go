package assistant

import (
	"fmt"
	"strings"
)

// Category identifies which rule produced an answer
type Category string

const (
	CategoryIssue        Category = "issue"
	CategorySubstitution Category = "substitution"
	CategoryTechnique    Category = "technique"
	CategoryDefinition   Category = "definition"
	CategoryUnknownTerm  Category = "unknown_term"
	CategoryTip          Category = "tip"
	CategoryTutorial     Category = "tutorial"
	CategoryFallback     Category = "fallback"
)

// Fixed responses
const (
	GeneralTipsResponse = "Here are some general cooking tips: read the whole recipe before you start, " +
		"prep and measure your ingredients ahead of time, taste as you go, and keep your knives sharp."

	FallbackResponse = "I'm not sure about that one. Ask me about a cooking technique, " +
		"an ingredient substitution, or a kitchen issue like a sauce that's too thick."

	unknownTermFormat = "I don't have %q in my glossary yet. Try asking about a cooking technique or an ingredient substitution."
)

// TutorialSteps is the generic tutorial returned for how-to questions
var TutorialSteps = []string{
	"Step 1: Gather all of your ingredients and equipment.",
	"Step 2: Prepare your workspace and preheat anything that needs it.",
	"Step 3: Follow the recipe steps in order, checking doneness as you go.",
	"Step 4: Ask me for help if you get stuck on any step!",
}

// Answer is a resolved response with the rule that produced it.
// Key is the matched knowledge base key or the looked-up term; it is
// empty for tip, tutorial and fallback answers.
type Answer struct {
	Text     string
	Category Category
	Key      string
}

// Resolver answers cooking questions from a knowledge base.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	kb *KnowledgeBase
}

// NewResolver creates a resolver over kb, or over the built-in
// knowledge base when kb is nil
func NewResolver(kb *KnowledgeBase) *Resolver {
	if kb == nil {
		kb = DefaultKnowledgeBase()
	}
	return &Resolver{kb: kb}
}

// KnowledgeBase returns the knowledge base the resolver reads from
func (r *Resolver) KnowledgeBase() *KnowledgeBase {
	return r.kb
}

// Resolve returns the best answer for utterance. It never fails and
// never returns an empty string.
func (r *Resolver) Resolve(utterance string) string {
	return r.Answer(utterance).Text
}

// Answer resolves utterance and reports which rule matched.
// Rules are tried in a fixed order and the first match wins.
func (r *Resolver) Answer(utterance string) Answer {
	q := strings.ToLower(utterance)

	if e, ok := firstContained(r.kb.issues, q); ok {
		return Answer{Text: e.Text(), Category: CategoryIssue, Key: e.Key}
	}

	if strings.Contains(q, "substitute") {
		if e, ok := firstContained(r.kb.substitutions, q); ok {
			return Answer{Text: e.Text(), Category: CategorySubstitution, Key: e.Key}
		}
	}

	if e, ok := firstContained(r.kb.techniques, q); ok {
		return Answer{Text: e.Text(), Category: CategoryTechnique, Key: e.Key}
	}

	if strings.HasPrefix(q, "what is") || strings.HasPrefix(q, "define ") {
		term := strings.TrimPrefix(q, "what is")
		term = strings.Replace(term, "define", "", 1)
		term = strings.TrimSpace(term)

		if e, ok := r.kb.technique(term); ok {
			return Answer{Text: e.Text(), Category: CategoryDefinition, Key: e.Key}
		}
		if e, ok := r.kb.substitution(term); ok {
			return Answer{Text: e.Text(), Category: CategoryDefinition, Key: e.Key}
		}
		return Answer{Text: fmt.Sprintf(unknownTermFormat, term), Category: CategoryUnknownTerm, Key: term}
	}

	if strings.Contains(q, "tip") || strings.Contains(q, "advice") {
		return Answer{Text: GeneralTipsResponse, Category: CategoryTip}
	}

	if strings.Contains(q, "how do i") || strings.Contains(q, "tutorial") || strings.Contains(q, "step") {
		return Answer{Text: strings.Join(TutorialSteps, " "), Category: CategoryTutorial}
	}

	return Answer{Text: FallbackResponse, Category: CategoryFallback}
}

func firstContained(entries []Entry, q string) (Entry, bool) {
	for _, e := range entries {
		if strings.Contains(q, e.Key) {
			return e, true
		}
	}
	return Entry{}, false
}
