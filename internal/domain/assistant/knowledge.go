// Package assistant implements the rule-based cooking assistant: a small
// ordered knowledge base and the resolver that answers free-text questions
// from it.
package assistant

import (
	"fmt"
	"strings"
)

// Section names a knowledge base mapping
type Section string

const (
	SectionIssues        Section = "issues"
	SectionTechniques    Section = "techniques"
	SectionSubstitutions Section = "substitutions"
)

// Entry is one key of a knowledge base section with its sentences
type Entry struct {
	Key       string
	Sentences []string
}

// Text renders the entry sentences joined by a single space
func (e Entry) Text() string {
	return strings.Join(e.Sentences, " ")
}

// KnowledgeBase holds the issues, techniques and substitutions tables.
// Entries keep their insertion order, which is the matching order.
// A KnowledgeBase is never mutated after construction.
type KnowledgeBase struct {
	issues        []Entry
	techniques    []Entry
	substitutions []Entry

	techniqueIndex    map[string]int
	substitutionIndex map[string]int
}

// NewKnowledgeBase builds a knowledge base from ordered entries.
// Keys are trimmed and lowercased.
func NewKnowledgeBase(issues, techniques, substitutions []Entry) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{}

	var err error
	if kb.issues, _, err = normalizeSection(SectionIssues, issues); err != nil {
		return nil, err
	}
	if kb.techniques, kb.techniqueIndex, err = normalizeSection(SectionTechniques, techniques); err != nil {
		return nil, err
	}
	if kb.substitutions, kb.substitutionIndex, err = normalizeSection(SectionSubstitutions, substitutions); err != nil {
		return nil, err
	}

	return kb, nil
}

func normalizeSection(section Section, entries []Entry) ([]Entry, map[string]int, error) {
	out := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))

	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Key))
		if key == "" {
			return nil, nil, fmt.Errorf("%s: %w", section, ErrEmptyKey)
		}
		if _, exists := index[key]; exists {
			return nil, nil, fmt.Errorf("%s %q: %w", section, key, ErrDuplicateKey)
		}

		sentences := make([]string, 0, len(e.Sentences))
		for _, s := range e.Sentences {
			if s = strings.TrimSpace(s); s != "" {
				sentences = append(sentences, s)
			}
		}
		if len(sentences) == 0 {
			return nil, nil, fmt.Errorf("%s %q: %w", section, key, ErrEmptySentences)
		}

		index[key] = len(out)
		out = append(out, Entry{Key: key, Sentences: sentences})
	}

	return out, index, nil
}

// Issues returns a copy of the issue entries in matching order
func (kb *KnowledgeBase) Issues() []Entry { return copyEntries(kb.issues) }

// Techniques returns a copy of the technique entries in matching order
func (kb *KnowledgeBase) Techniques() []Entry { return copyEntries(kb.techniques) }

// Substitutions returns a copy of the substitution entries in matching order
func (kb *KnowledgeBase) Substitutions() []Entry { return copyEntries(kb.substitutions) }

// Size returns the number of entries per section
func (kb *KnowledgeBase) Size() map[Section]int {
	return map[Section]int{
		SectionIssues:        len(kb.issues),
		SectionTechniques:    len(kb.techniques),
		SectionSubstitutions: len(kb.substitutions),
	}
}

func (kb *KnowledgeBase) technique(term string) (Entry, bool) {
	i, ok := kb.techniqueIndex[term]
	if !ok {
		return Entry{}, false
	}
	return kb.techniques[i], true
}

func (kb *KnowledgeBase) substitution(term string) (Entry, bool) {
	i, ok := kb.substitutionIndex[term]
	if !ok {
		return Entry{}, false
	}
	return kb.substitutions[i], true
}

func copyEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Key: e.Key, Sentences: append([]string(nil), e.Sentences...)}
	}
	return out
}

// DefaultKnowledgeBase returns the built-in cooking knowledge base
func DefaultKnowledgeBase() *KnowledgeBase {
	kb, err := NewKnowledgeBase(defaultIssues, defaultTechniques, defaultSubstitutions)
	if err != nil {
		panic(fmt.Sprintf("assistant: invalid built-in knowledge base: %v", err))
	}
	return kb
}

func one(key, sentence string) Entry {
	return Entry{Key: key, Sentences: []string{sentence}}
}

var defaultIssues = []Entry{
	{Key: "food too salty", Sentences: []string{
		"Add a peeled raw potato and simmer for 10 minutes to absorb some salt.",
		"Dilute with unsalted stock, water, or cream.",
		"Balance with a splash of acid such as lemon juice or vinegar.",
	}},
	{Key: "sauce too thick", Sentences: []string{
		"Whisk in warm stock, water, or milk a tablespoon at a time.",
		"Keep the heat low while thinning so the sauce doesn't break.",
	}},
	{Key: "sauce too thin", Sentences: []string{
		"Simmer uncovered to reduce it.",
		"Or whisk in a slurry of one teaspoon cornstarch and one tablespoon cold water.",
		"A knob of cold butter stirred in at the end also adds body.",
	}},
	{Key: "too spicy", Sentences: []string{
		"Stir in dairy like yogurt, cream, or coconut milk.",
		"Add a little sugar or honey to balance the heat.",
		"Serve with rice or bread to spread the spice out.",
	}},
	{Key: "burnt", Sentences: []string{
		"Don't scrape the bottom of the pan.",
		"Transfer the unburnt portion to a clean pot right away.",
		"Taste it and mask any smoky notes with fresh herbs or acid.",
	}},
	{Key: "dough not rising", Sentences: []string{
		"Check that your yeast is fresh by proofing it in warm water with a pinch of sugar.",
		"Move the dough somewhere warm, around 75 to 80 degrees Fahrenheit.",
		"Give it more time; cold kitchens can double rising times.",
	}},
	{Key: "meat too tough", Sentences: []string{
		"Slice it thinly against the grain.",
		"Return it to a low simmer with some liquid to braise until tender.",
	}},
	{Key: "cake sank", Sentences: []string{
		"Avoid opening the oven door during the first two thirds of baking.",
		"Check that your baking powder is fresh.",
		"Verify your oven temperature with an oven thermometer.",
	}},
	{Key: "rice mushy", Sentences: []string{
		"Spread the rice on a sheet pan to let excess moisture evaporate.",
		"Next time, rinse the rice and use less water.",
	}},
}

var defaultTechniques = []Entry{
	one("sauté", "Sauté means cooking food quickly in a small amount of fat over medium-high heat, tossing or stirring often."),
	one("saute", "Sauté means cooking food quickly in a small amount of fat over medium-high heat, tossing or stirring often."),
	one("blanch", "Blanching is briefly boiling food, then plunging it into ice water to stop the cooking and set the color."),
	one("braise", "Braising is searing food, then cooking it slowly in a covered pot with a small amount of liquid."),
	one("deglaze", "Deglazing is adding liquid to a hot pan to loosen the browned bits stuck to the bottom, building a flavorful sauce."),
	one("julienne", "Julienne is cutting food into thin matchstick strips about 1/8 inch thick."),
	one("emulsify", "Emulsifying is combining two liquids that don't normally mix, like oil and vinegar, by whisking one slowly into the other."),
	one("fold", "Folding is gently combining a light mixture into a heavier one with a spatula, cutting down and lifting over to keep the air in."),
	one("temper", "Tempering is slowly raising the temperature of an ingredient, like eggs, by whisking in small amounts of hot liquid so it doesn't curdle."),
	one("poach", "Poaching is cooking food gently in liquid held just below a simmer."),
	one("sear", "Searing is browning the surface of food over very high heat to develop flavor."),
	one("roux", "A roux is equal parts fat and flour cooked together and used to thicken sauces and soups."),
	one("proof", "Proofing is letting yeast dough rest in a warm place so it can rise before baking."),
}

var defaultSubstitutions = []Entry{
	one("buttermilk", "For 1 cup of buttermilk, stir 1 tablespoon of lemon juice or vinegar into 1 cup of milk and let it sit for 5 minutes."),
	one("sour cream", "Plain Greek yogurt substitutes 1:1 for sour cream."),
	one("baking powder", "For 1 teaspoon of baking powder, use 1/4 teaspoon baking soda plus 1/2 teaspoon cream of tartar."),
	one("egg", "Replace 1 egg with 1 tablespoon ground flaxseed mixed with 3 tablespoons water, or 1/4 cup unsweetened applesauce."),
	one("butter", "Replace butter 1:1 with coconut oil, or use 3/4 the amount of olive oil for savory dishes."),
	one("milk", "Use an equal amount of any plant milk, or half water and half evaporated milk."),
	one("heavy cream", "Melt 1/4 cup butter into 3/4 cup milk to replace 1 cup of heavy cream in cooking."),
	one("sugar", "Use 3/4 cup honey or maple syrup per cup of sugar and reduce the other liquids by 3 tablespoons."),
	one("flour", "For thickening, use half as much cornstarch as the flour called for."),
	one("wine", "Replace wine with an equal amount of stock plus a splash of vinegar."),
	one("honey", "Maple syrup or agave nectar substitutes 1:1 for honey."),
}
